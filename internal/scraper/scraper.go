// Package scraper issues paginated job searches against the authenticated
// surface and parses result tiles into normalized job records. It is
// deliberately defensive: the markup changes often and a broken tile must
// never take a page down with it.
package scraper

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"go-jobpilot-automation/internal/browser"
	"go-jobpilot-automation/internal/models"

	"github.com/playwright-community/playwright-go"
)

const (
	tileSelector = "li.scaffold-layout__list-item, .job-card-container, .jobs-search-results__list-item"

	titleSelector    = ".job-card-list__title, .job-card-container__link, a[data-control-name='job_card_title']"
	companySelector  = ".job-card-container__company-name, .job-card-container__primary-description, .artdeco-entity-lockup__subtitle"
	locationSelector = ".job-card-container__metadata-item, .artdeco-entity-lockup__caption"
	easyApplyBadge   = ".job-card-container__apply-method, [class*='easy-apply'], .jobs-apply-button--top-card"
	postedSelector   = ".job-card-container__footer-item, time"

	descriptionSelector = ".jobs-description__content, .jobs-box__html-content, #job-details"
	showMoreSelector    = "button[data-testid=\"expandable-text-button\"]"
)

var jobViewRegex = regexp.MustCompile(`/jobs/view/(\d+)`)

type Scraper struct {
	minPageDelayMs int
	maxPageDelayMs int
}

func New(minPageDelayMs, maxPageDelayMs int) *Scraper {
	// The inter-page delay keeps the authenticated session under the
	// host's rate-limiting thresholds. It is a hard requirement: removing
	// it risks the session being throttled or revoked.
	if minPageDelayMs < 1000 {
		minPageDelayMs = 1000
	}
	if maxPageDelayMs <= minPageDelayMs {
		maxPageDelayMs = minPageDelayMs + 1000
	}
	return &Scraper{minPageDelayMs: minPageDelayMs, maxPageDelayMs: maxPageDelayMs}
}

// Search runs the query across up to q.MaxPages result pages and returns
// the parsed records. The sequence is not restartable: a new call
// re-issues all requests.
func (s *Scraper) Search(ctx context.Context, page playwright.Page, q SearchQuery) ([]models.Job, error) {
	var jobs []models.Job

	for pageNum := 0; pageNum < q.MaxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		searchURL := BuildSearchURL(q, pageNum)
		log.Printf("🌐 Page %d/%d: %s", pageNum+1, q.MaxPages, searchURL)

		pageJobs, err := s.scrapePage(page, searchURL, q.Keywords)
		if err != nil {
			return jobs, fmt.Errorf("failed to scrape page %d for %q: %w", pageNum+1, q.Keywords, err)
		}
		jobs = append(jobs, pageJobs...)

		//a short page means we hit the end of the results
		if len(pageJobs) < 20 {
			break
		}
		if pageNum < q.MaxPages-1 {
			browser.RandomDelay(s.minPageDelayMs, s.maxPageDelayMs)
		}
	}

	log.Printf("📦 Collected %d jobs for %q", len(jobs), q.Keywords)
	return jobs, nil
}

func (s *Scraper) scrapePage(page playwright.Page, searchURL, keyword string) ([]models.Job, error) {
	if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("failed to load search page: %w", err)
	}

	if _, err := page.WaitForSelector(tileSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(15000),
	}); err != nil {
		log.Println("⚠️ No job tiles found on this page.")
		return nil, nil
	}

	browser.RandomDelay(1500, 3000)
	browser.HumanScroll(page)
	browser.MouseJiggle(page)

	tiles, err := page.Locator(tileSelector).All()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate job tiles: %w", err)
	}
	log.Printf("    📄 Found %d tiles.", len(tiles))

	var jobs []models.Job
	for _, tile := range tiles {
		job, err := parseTile(tile, keyword)
		if err != nil {
			//a single malformed tile must not abort the page
			log.Printf("    ⚠️ Skipping malformed tile: %v", err)
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// parseTile extracts one job record from a result tile.
func parseTile(tile playwright.Locator, keyword string) (*models.Job, error) {
	externalID, jobURL, err := extractJobRef(tile)
	if err != nil {
		return nil, err
	}

	title := innerTextOr(tile.Locator(titleSelector).First(), "")
	if title == "" {
		return nil, fmt.Errorf("tile %s has no title", externalID)
	}
	company := innerTextOr(tile.Locator(companySelector).First(), "Unknown")
	location := innerTextOr(tile.Locator(locationSelector).First(), "")
	posted := innerTextOr(tile.Locator(postedSelector).First(), "")

	easyApply := false
	if count, _ := tile.Locator(easyApplyBadge).Count(); count > 0 {
		easyApply = true
	} else if text, err := tile.InnerText(); err == nil {
		//badge markup changes often; the label text is more stable
		easyApply = strings.Contains(strings.ToLower(text), "easy apply")
	}

	return &models.Job{
		ExternalID:    externalID,
		Title:         title,
		Company:       company,
		Location:      location,
		URL:           jobURL,
		EasyApply:     easyApply,
		PostedDate:    posted,
		SearchKeyword: keyword,
		ScrapedAt:     time.Now().UTC(),
	}, nil
}

// extractJobRef finds the listing's external identifier, from the tile's
// data attribute or its view link, and builds the canonical URL without
// tracking params.
func extractJobRef(tile playwright.Locator) (string, string, error) {
	if id, err := tile.GetAttribute("data-job-id"); err == nil && id != "" {
		return id, canonicalJobURL(id), nil
	}

	link := tile.Locator("a[href*='/jobs/view/']").First()
	href, err := link.GetAttribute("href")
	if err != nil || href == "" {
		return "", "", fmt.Errorf("no job id on tile")
	}
	match := jobViewRegex.FindStringSubmatch(href)
	if match == nil {
		return "", "", fmt.Errorf("unrecognized job link %q", href)
	}
	return match[1], canonicalJobURL(match[1]), nil
}

func canonicalJobURL(externalID string) string {
	return fmt.Sprintf("https://www.linkedin.com/jobs/view/%s/", externalID)
}

func innerTextOr(loc playwright.Locator, fallback string) string {
	text, err := loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return fallback
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return fallback
}

// EnrichDescription visits the job's detail page and fills in the
// description. Best-effort and independent per job: a failure leaves the
// description empty and never aborts the batch.
func (s *Scraper) EnrichDescription(ctx context.Context, page playwright.Page, job *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := page.Goto(job.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return fmt.Errorf("failed to load job detail page: %w", err)
	}
	browser.RandomDelay(1500, 3000)

	//expand truncated description
	showMore := page.Locator(showMoreSelector)
	if visible, _ := showMore.IsVisible(); visible {
		showMore.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)})
		browser.RandomDelay(400, 800)
	}

	desc := innerTextOr(page.Locator(descriptionSelector).First(), "")
	if desc == "" {
		return fmt.Errorf("no description found for job %s", job.ExternalID)
	}
	job.Description = desc
	return nil
}
