// Terminal viewer for a running nanovideo server. Polls the API and shows
// the cached files plus storage health in a live table.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type fileEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

type listResponse struct {
	Files []fileEntry `json:"files"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Error   string `json:"error,omitempty"`
}

// apiClient talks to the nanovideo HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: check your API key")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) files(ctx context.Context) ([]fileEntry, error) {
	var resp listResponse
	if err := c.get(ctx, "/files", &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *apiClient) health(ctx context.Context) (*healthResponse, error) {
	var resp healthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// viewerApp is the TUI application.
type viewerApp struct {
	app    *tview.Application
	table  *tview.Table
	header *tview.TextView
	footer *tview.TextView
	status *tview.TextView

	client   *apiClient
	interval time.Duration
}

func newViewerApp(client *apiClient, interval time.Duration) *viewerApp {
	v := &viewerApp{
		app:      tview.NewApplication(),
		client:   client,
		interval: interval,
	}
	v.setupUI()
	return v
}

// setupUI initializes all UI components.
func (v *viewerApp) setupUI() {
	v.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	v.header.SetBackgroundColor(tcell.ColorDarkBlue)
	v.header.SetText(fmt.Sprintf("[white::b]nanovideo cache viewer %s[-] — %s", Version, v.client.baseURL))

	v.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]r[white]:Refresh [yellow]q[white]:Quit")
	v.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	v.status = tview.NewTextView().
		SetDynamicColors(true)
	v.status.SetBackgroundColor(tcell.ColorDarkGreen)

	v.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.header, 1, 0, false).
		AddItem(v.table, 0, 1, true).
		AddItem(v.status, 1, 0, false).
		AddItem(v.footer, 1, 0, false)

	v.app.SetInputCapture(v.handleGlobalKeys)
	v.app.SetRoot(mainFlex, true)
}

// handleGlobalKeys handles global keyboard shortcuts.
func (v *viewerApp) handleGlobalKeys(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune {
		switch event.Rune() {
		case 'q':
			v.app.Stop()
			return nil
		case 'r':
			go v.refresh()
			return nil
		}
	}
	return event
}

// refresh polls the server and redraws the table.
func (v *viewerApp) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, healthErr := v.client.health(ctx)
	files, filesErr := v.client.files(ctx)

	v.app.QueueUpdateDraw(func() {
		switch {
		case healthErr != nil:
			v.status.SetText(fmt.Sprintf("[red]server unreachable: %v", healthErr))
		case health.Status != "ok":
			v.status.SetText(fmt.Sprintf("[red]storage %s unhealthy: %s", health.Storage, health.Error))
		default:
			v.status.SetText(fmt.Sprintf("[white]storage: %s | files: %d | updated %s",
				health.Storage, len(files), time.Now().Format("15:04:05")))
		}

		if filesErr != nil {
			return
		}

		v.table.Clear()
		headers := []string{"NAME", "SIZE", "PATH"}
		for col, h := range headers {
			v.table.SetCell(0, col, tview.NewTableCell("[::b]"+h).
				SetSelectable(false).
				SetExpansion(1))
		}
		for row, f := range files {
			v.table.SetCell(row+1, 0, tview.NewTableCell(f.Name))
			v.table.SetCell(row+1, 1, tview.NewTableCell(formatSize(f.Size)))
			v.table.SetCell(row+1, 2, tview.NewTableCell(f.Path).SetExpansion(2))
		}
	})
}

// Run starts the polling loop and the TUI event loop.
func (v *viewerApp) Run() error {
	go func() {
		v.refresh()
		ticker := time.NewTicker(v.interval)
		defer ticker.Stop()
		for range ticker.C {
			v.refresh()
		}
	}()

	return v.app.Run()
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// promptKey prompts for the API key without echoing.
func promptKey() (string, error) {
	fmt.Print("Enter API key: ")

	if term.IsTerminal(int(syscall.Stdin)) {
		key, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		fmt.Println()
		return string(key), nil
	}

	// Fallback for non-terminal input
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8000", "nanovideo server URL")
	interval := flag.Duration("interval", 5*time.Second, "refresh interval")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nanovideo viewer %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	apiKey := os.Getenv("NANOVIDEO_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = promptKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading API key: %v\n", err)
			os.Exit(1)
		}
	}

	client := newAPIClient(*serverURL, apiKey)
	viewer := newViewerApp(client, *interval)

	if err := viewer.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		os.Exit(1)
	}
}
