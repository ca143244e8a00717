package omio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultBaseURL is the Omio home page holding the search form.
const DefaultBaseURL = "https://www.omio.com"

const (
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	originInput      = `[data-e2e="departurePositionInput"]`
	destinationInput = `[data-e2e="arrivalPositionInput"]`
	suggestion       = `[data-e2e="positionSuggestion"]`
	dateButton       = `[data-e2e="buttonDepartureDate"]`
	searchButton     = `[data-e2e="buttonSearch"]`
	resultCard       = `[data-testid="result-card"], [data-testid="search-result"], .search-result-card`

	calendarMonths = 12
	typingPause    = time.Second
	renderPause    = 3 * time.Second
	screenshotWait = 5 * time.Second
)

const dismissCookiesJS = `(() => {
  const b = document.querySelector('[data-element="gdpr-banner-button-accept"], #didomi-notice-agree-button');
  if (b) { b.click(); return true; }
  return false;
})()`

// pickDayJS clicks the calendar day whose date attribute starts with the
// JSON string argument, e.g. "Sun Mar 15 2026".
const pickDayJS = `((prefix) => {
  for (const d of document.querySelectorAll('[data-e2e="calendarDay"]')) {
    const v = d.getAttribute("date");
    if (v && v.startsWith(prefix)) { d.click(); return true; }
  }
  return false;
})(%s)`

const nextMonthJS = `(() => {
  const b = document.querySelector('[data-e2e="calendarButtonNext"], button[aria-label="Next month"], button[aria-label="next"]');
  if (b) { b.click(); return true; }
  return false;
})()`

const readCardsJS = `Array.from(document.querySelectorAll(%s)).slice(0, %d).map(e => e.innerText)`

// ChromeBrowser runs each search in a fresh Chrome process.
type ChromeBrowser struct {
	baseURL  string
	headless bool
	timeout  time.Duration
	debugDir string
}

var _ Browser = (*ChromeBrowser)(nil)

// ChromeOption configures a ChromeBrowser.
type ChromeOption func(*ChromeBrowser)

// WithHeadless toggles headless mode. Headless is the default.
func WithHeadless(headless bool) ChromeOption {
	return func(b *ChromeBrowser) { b.headless = headless }
}

// WithDebugDir saves a screenshot into dir whenever a search fails.
func WithDebugDir(dir string) ChromeOption {
	return func(b *ChromeBrowser) { b.debugDir = dir }
}

// NewChromeBrowser returns a browser for the Omio site at baseURL. Each search
// is bounded by timeout.
func NewChromeBrowser(baseURL string, timeout time.Duration, opts ...ChromeOption) *ChromeBrowser {
	b := &ChromeBrowser{baseURL: baseURL, headless: true, timeout: timeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *ChromeBrowser) ResultCards(ctx context.Context, q Query, limit int) ([]string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("lang", "en-US"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 720),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Start the browser before the search deadline begins.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("omio.ChromeBrowser: start: %w", err)
	}

	runCtx, cancel := context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	var cards []string
	var dismissed bool
	err := chromedp.Run(runCtx,
		chromedp.Navigate(b.baseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(dismissCookiesJS, &dismissed),
		fillPosition(originInput, q.Origin),
		fillPosition(destinationInput, q.Destination),
		chromedp.Click(dateButton, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		pickDate(q.Date),
		chromedp.Click(searchButton, chromedp.ByQuery),
		chromedp.WaitVisible(resultCard, chromedp.ByQuery),
		chromedp.Sleep(renderPause),
		chromedp.Evaluate(fmt.Sprintf(readCardsJS, jsString(resultCard), limit), &cards),
	)
	if err != nil {
		b.screenshot(browserCtx)
		return nil, fmt.Errorf("omio.ChromeBrowser: %s to %s: %w", q.Origin, q.Destination, err)
	}
	slog.DebugContext(ctx, "omio search complete", "origin", q.Origin, "destination", q.Destination, "cards", len(cards))
	return cards, nil
}

// fillPosition types a place name and picks the first suggestion.
func fillPosition(sel, place string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, place, chromedp.ByQuery),
		chromedp.Sleep(typingPause),
		chromedp.WaitVisible(suggestion, chromedp.ByQuery),
		chromedp.Click(suggestion, chromedp.ByQuery),
	}
}

// pickDate pages through the open calendar until day is shown and clicks it.
// A day that never appears leaves the site's default date selected.
func pickDate(day time.Time) chromedp.ActionFunc {
	pick := fmt.Sprintf(pickDayJS, jsString(day.Format("Mon Jan 02 2006")))
	return func(ctx context.Context) error {
		for range calendarMonths {
			var found bool
			if err := chromedp.Evaluate(pick, &found).Do(ctx); err != nil {
				return err
			}
			if found {
				return nil
			}
			var advanced bool
			if err := chromedp.Evaluate(nextMonthJS, &advanced).Do(ctx); err != nil {
				return err
			}
			if !advanced {
				break
			}
			if err := chromedp.Sleep(500 * time.Millisecond).Do(ctx); err != nil {
				return err
			}
		}
		slog.WarnContext(ctx, "omio calendar has no such day", "date", day.Format(time.DateOnly))
		return nil
	}
}

func (b *ChromeBrowser) screenshot(browserCtx context.Context) {
	if b.debugDir == "" {
		return
	}
	ctx, cancel := context.WithTimeout(browserCtx, screenshotWait)
	defer cancel()

	var png []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&png, 100)); err != nil {
		slog.Warn("omio screenshot failed", "error", err)
		return
	}
	path := filepath.Join(b.debugDir, "omio_"+time.Now().Format("20060102_150405")+".png")
	if err := os.MkdirAll(b.debugDir, 0o755); err != nil {
		slog.Warn("omio screenshot failed", "error", err)
		return
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		slog.Warn("omio screenshot failed", "error", err)
		return
	}
	slog.Info("omio debug screenshot saved", "path", path)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
