package whiskybaseweb

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.openly.dev/pointy"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

type DistilleryJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       struct {
		ContentURL string `json:"contentUrl"`
		URL        string `json:"url"`
	} `json:"image"`
	AggregateRating struct {
		RatingValue float64 `json:"ratingValue"`
		BestRating  string  `json:"bestRating"`
		ReviewCount int     `json:"reviewCount"`
	} `json:"aggregateRating"`
	Address struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
		AddressCountry  string `json:"addressCountry"`
	} `json:"address"`
}

func (w *WhiskybaseWebIntegration) FindDistillery(name string) ([]model.Distillery, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains("www.whiskybase.com", "whiskybase.com"),
	)

	var (
		errs    error
		results []model.Distillery
	)

	collector.OnHTML(".brand-item", func(element *colly.HTMLElement) {
		ratingString := element.ChildAttr(".rating > div", "data-rating")
		rating, _ := strconv.ParseFloat(ratingString, 64)

		if rating > 0.0 {
			distilleryURI := element.ChildAttr(".title > a", "href")

			distillery, err := w.getDistilleryFromURI(distilleryURI, collector)
			if multierr.AppendInto(&errs, err) {
				return
			}

			results = append(results, distillery)
		}
	})

	multierr.AppendInto(&errs, collector.Visit("https://www.whiskybase.com/search?q="+name+"&type=distillery"))

	return results, errs
}

func (w *WhiskybaseWebIntegration) getDistilleryFromURI(uri string, collector *colly.Collector) (model.Distillery, error) {
	var (
		errs         error
		distillery   model.Distillery
		distilleryID uint64
	)

	collector.OnHTML("head script[type='application/ld+json']", func(element *colly.HTMLElement) {
		var distilleryJSON DistilleryJSON
		_ = json.Unmarshal([]byte(element.Text), &distilleryJSON)

		distillery = model.Distillery{
			Name:        distilleryJSON.Name,
			Description: distilleryJSON.Description,
			Address: model.Address{
				Country:       distilleryJSON.Address.AddressCountry,
				Locality:      distilleryJSON.Address.AddressLocality,
				Region:        stringPointer(distilleryJSON.Address.AddressRegion),
				StreetAddress: stringPointer(distilleryJSON.Address.StreetAddress),
			},
			ImageURL:       distilleryJSON.Image.ContentURL,
			ExternalSource: pointy.String(IntegrationName),
			ExternalRating: pointy.Float64(distilleryJSON.AggregateRating.RatingValue),
		}
	})

	collector.OnHTML("head meta[property='og:url']", func(element *colly.HTMLElement) {
		distilleryURI := element.Attr("content")
		idString := distilleryURI[strings.LastIndex(distilleryURI, "/")+1:]

		id, err := strconv.ParseUint(idString, 10, 64)
		if err != nil {
			w.logger.Error("failed to parse distillery id", zap.String("url", distilleryURI), zap.Error(err))
		} else {
			distilleryID = id
		}
	})

	multierr.AppendInto(&errs, collector.Visit("https://www.whiskybase.com"+uri))

	if distilleryID != 0 {
		distillery.ExternalID = pointy.Uint64(distilleryID)
	}

	return distillery, errs
}

func stringPointer(value string) *string {
	if len(value) > 0 {
		return &value
	}

	return nil
}
