package gallery

import (
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// previewQuery locates the large preview image whose source changes as rail
// thumbnails are activated.
const previewQuery = "#landingImage, #imgTagWrapperId img"

const (
	railWaitTimeout = 8 * time.Second
	hoverSettle     = 150 * time.Millisecond
	clickSettle     = 120 * time.Millisecond
)

// Escalator rebuilds a candidate list from the live page when passive
// extraction found nothing. Every per-thumbnail failure is swallowed and the
// loop moves on; a total failure yields an empty set, never an error.
type Escalator struct {
	page   playwright.Page
	logger *slog.Logger
}

func NewEscalator(page playwright.Page) *Escalator {
	return &Escalator{
		page:   page,
		logger: slog.Default().With("component", "gallery_escalator"),
	}
}

// Collect runs the escalation ladder: a hover pass when allowHover is set,
// then a click pass when thorough is set and hovering produced nothing.
func (e *Escalator) Collect(allowHover, thorough bool) *CandidateSet {
	set := NewCandidateSet()
	if allowHover {
		set = e.HoverPass()
	}
	if thorough && set.Empty() {
		set = e.ClickPass()
	}
	return set
}

// HoverPass activates each rail thumbnail with synthesized pointer events and
// records the preview element's source after each activation.
func (e *Escalator) HoverPass() *CandidateSet {
	return e.sweep(func(thumb playwright.Locator) error {
		if err := thumb.ScrollIntoViewIfNeeded(); err != nil {
			return err
		}
		if err := thumb.Hover(playwright.LocatorHoverOptions{
			Timeout: playwright.Float(1000),
		}); err != nil {
			return err
		}
		// Some layouts only react to bubbled mouse events, not the raw
		// pointer movement.
		_, err := thumb.Evaluate(`el => {
			['mouseover','mouseenter','mousemove'].forEach(ev =>
				el.dispatchEvent(new MouseEvent(ev, {bubbles: true, cancelable: true}))
			);
		}`, nil)
		if err != nil {
			return err
		}
		time.Sleep(hoverSettle)
		return nil
	})
}

// ClickPass is the slower variant: it clicks each thumbnail instead of
// hovering, for layouts that only swap the preview on selection.
func (e *Escalator) ClickPass() *CandidateSet {
	return e.sweep(func(thumb playwright.Locator) error {
		if err := thumb.ScrollIntoViewIfNeeded(); err != nil {
			return err
		}
		if err := thumb.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(1000),
		}); err != nil {
			return err
		}
		time.Sleep(clickSettle)
		return nil
	})
}

// sweep drives activate over every rail thumbnail and harvests the preview
// element after each one.
func (e *Escalator) sweep(activate func(playwright.Locator) error) *CandidateSet {
	set := NewCandidateSet()

	e.waitForRail()

	thumbs, err := e.page.Locator(thumbQuery).All()
	if err != nil {
		e.logger.Debug("no rail thumbnails located", "error", err)
		return set
	}

	for i, thumb := range thumbs {
		if err := activate(thumb); err != nil {
			e.logger.Debug("thumbnail interaction failed", "index", i, "error", err)
			continue
		}
		e.observePreview(set)
	}
	return set
}

// waitForRail blocks until a rail container exists, bounded by a short
// timeout. Absence is not an error; the sweep simply finds no thumbnails.
func (e *Escalator) waitForRail() {
	locator := e.page.Locator(strings.Join(railContainers, ", ")).First()
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(railWaitTimeout.Milliseconds())),
	}); err != nil {
		e.logger.Debug("rail container not found", "error", err)
	}
}

// observePreview reads the preview element's current source, preferring the
// dynamic-image JSON attribute over direct source attributes.
func (e *Escalator) observePreview(set *CandidateSet) {
	preview := e.page.Locator(previewQuery).First()

	if dyn, err := preview.GetAttribute("data-a-dynamic-image"); err == nil && dyn != "" {
		taken := false
		for _, u := range dynamicImageKeys(dyn) {
			if set.Add(u) {
				taken = true
			}
		}
		if taken {
			return
		}
	}

	for _, attr := range []string{"src", "data-old-hires", "data-src"} {
		src, err := preview.GetAttribute(attr)
		if err != nil || src == "" {
			continue
		}
		if set.Add(src) {
			return
		}
	}
}
