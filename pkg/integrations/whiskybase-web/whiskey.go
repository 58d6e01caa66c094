package whiskybaseweb

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"go.openly.dev/pointy"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

type WhiskeyJSON struct {
	Description string `json:"description"`
	Brand       struct {
		Name string `json:"name"`
	} `json:"brand"`
	Image struct {
		ContentURL string `json:"contentUrl"`
	} `json:"image"`
	Sku             uint64 `json:"sku"`
	AggregateRating struct {
		RatingValue float64 `json:"ratingValue"`
		BestRating  string  `json:"bestRating"`
		ReviewCount int     `json:"reviewCount"`
	} `json:"aggregateRating"`
}

type WhiskeyScraped struct {
	IDLink           string `attr:"href"               selector:"a.clickable"`
	Name             string `selector:".title > a"`
	DistilleryIDLink string `attr:"href"               selector:".brand > a"`
	Category         string `selector:".category"`
	ABV              string `selector:".abv"`
	Age              string `selector:".age"`
}

type WhiskeyContent struct {
	Description string `selector:".description"`
	ImageURL    string `attr:"src"                  selector:"a.photo > img"`
	Rating      string `selector:".votes-rating"`
}

type scrapeResults struct {
	whiskeys []model.Whiskey
	err      error
}

func (w *WhiskybaseWebIntegration) FindWhiskey(name string) ([]model.Whiskey, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains("www.whiskybase.com", "whiskybase.com"),
		colly.UserAgent("Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:15.0) Gecko/20100101 Firefox/15.0.1"),
	)

	var (
		errs         error
		results      []model.Whiskey
		scrapedPages []WhiskeyScraped
	)

	distilleries := make(map[string]model.Distillery, 0)

	collector.OnHTML(".whisky-item", func(element *colly.HTMLElement) {
		scraped := WhiskeyScraped{}

		err := element.Unmarshal(&scraped)
		if multierr.AppendInto(&errs, err) {
			w.logger.Error("failed to unmarshal scraped whiskey", zap.Error(err))

			return
		}

		idString := scraped.IDLink[strings.LastIndex(scraped.IDLink, "/")+1:]

		w.logger.Info("successfully scraped item from results", zap.String("id", idString), zap.String("name", scraped.Name))

		if _, found := distilleries[scraped.DistilleryIDLink]; !found {
			err = w.cacheDistilleryDetails(scraped.DistilleryIDLink, collector, distilleries)
			if multierr.AppendInto(&errs, err) {
				return
			}
		}

		scrapedPages = append(scrapedPages, scraped)
	})

	collector.OnError(func(response *colly.Response, err error) {
		w.logger.Error("error while scraping whiskey search results", zap.String("url", response.Request.URL.String()), zap.Error(err))
	})

	w.logger.Info("scraping query results", zap.String("query", name))
	multierr.AppendInto(&errs, collector.Visit("https://www.whiskybase.com/search?q="+name))

	var whiskeyWG sync.WaitGroup

	whiskeyChan := make(chan scrapeResults, len(scrapedPages))

	appendResult := func() {
		scraped := <-whiskeyChan
		results = append(results, scraped.whiskeys...)
		multierr.AppendInto(&errs, scraped.err)
		whiskeyWG.Done()
	}

	for _, scraped := range scrapedPages {
		whiskeyWG.Add(1)

		go w.getWhiskeyData(collector.Clone(), scraped, distilleries, whiskeyChan)
		go appendResult()
	}

	whiskeyWG.Wait()

	w.logger.Info("finished scraping query results", zap.Any("results", results), zap.Error(errs))

	return results, errs
}

func (w *WhiskybaseWebIntegration) getWhiskeyData(detailCollector *colly.Collector, scraped WhiskeyScraped, distilleries map[string]model.Distillery, whiskeyChan chan scrapeResults) {
	whiskey := model.Whiskey{
		Name:           scraped.Name,
		ExternalSource: pointy.String(IntegrationName),
		Distillery:     distilleries[scraped.DistilleryIDLink],
		Style:          model.WhiskeyStyle{Name: scraped.Category},
		Proof:          ExtractProof(scraped.ABV),
		Age:            ExtractAge(scraped.Age),
	}

	detailCollector.OnHTML("head script[type='application/ld+json']", func(element *colly.HTMLElement) {
		var whiskeyJSON WhiskeyJSON
		_ = json.Unmarshal([]byte(element.Text), &whiskeyJSON)

		w.logger.Info("successfully scraped whiskey from JSON data", zap.Uint64("id", whiskeyJSON.Sku), zap.String("description", whiskeyJSON.Description))

		whiskey.Description = whiskeyJSON.Description
		whiskey.ImageURL = whiskeyJSON.Image.ContentURL
		whiskey.ExternalID = pointy.Uint64(whiskeyJSON.Sku)
		whiskey.ExternalRating = pointy.Float64(whiskeyJSON.AggregateRating.RatingValue)
	})

	detailCollector.OnHTML(".content", func(element *colly.HTMLElement) {
		whiskeyContent := WhiskeyContent{}

		err := element.Unmarshal(&whiskeyContent)
		if err != nil {
			return
		}

		if len(whiskey.Description) == 0 {
			whiskey.Description = whiskeyContent.Description
		}

		if len(whiskey.ImageURL) == 0 {
			whiskey.ImageURL = whiskeyContent.ImageURL
		}

		if whiskey.ExternalRating == nil {
			rating, err := strconv.ParseFloat(whiskeyContent.Rating, 64)
			if err == nil {
				whiskey.ExternalRating = pointy.Float64(rating)
			}
		}
	})

	idString := scraped.IDLink[strings.LastIndex(scraped.IDLink, "/")+1:]
	w.logger.Info("scraping whiskey page", zap.String("id", idString))

	err := detailCollector.Visit("https://www.whiskybase.com/whiskies/whisky/" + idString)
	if err == nil && whiskey.ExternalID == nil {
		externalID, err := strconv.ParseUint(idString, 10, 64)
		if err == nil {
			whiskey.ExternalID = pointy.Uint64(externalID)
		}
	}

	whiskeyChan <- scrapeResults{whiskeys: []model.Whiskey{whiskey}, err: err}
}

func (w *WhiskybaseWebIntegration) cacheDistilleryDetails(distilleryURI string, collector *colly.Collector, distilleries map[string]model.Distillery) error {
	distillery, err := w.getDistilleryFromURI(distilleryURI, collector)
	if err != nil {
		return err
	}

	distilleries[distilleryURI] = distillery

	return nil
}

// ExtractProof converts a scraped ABV fragment like "43.0% Vol." to US proof
// (twice the ABV). Returns nil when the fragment carries no percentage.
func ExtractProof(abv string) *float64 {
	if strings.Contains(abv, "%") {
		value, err := strconv.ParseFloat(strings.TrimSpace(abv[:strings.Index(abv, "%")]), 64) //nolint: gocritic // We know we won't get -1
		if err != nil {
			return nil
		}

		return pointy.Float64(value * 2)
	}

	return nil
}

// ExtractAge parses an age-statement fragment like "12 years old". NAS
// bottlings ("N/A", empty) return nil.
func ExtractAge(age string) *uint64 {
	age = strings.TrimSpace(age)
	if len(age) == 0 || strings.HasPrefix(age, "N/A") {
		return nil
	}

	value, err := strconv.ParseUint(strings.Split(age, " ")[0], 0, 64)
	if err != nil {
		return nil
	}

	return pointy.Uint64(value)
}
