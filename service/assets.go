package service

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/unsplash"
	"github.com/varunaditya27/EduSynth/repository"
)

// ImageSearcher is the stock-photo lookup surface. The Unsplash client
// satisfies it.
type ImageSearcher interface {
	Search(ctx context.Context, query string) (*unsplash.ImageResult, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// SlidePhoto pairs a slide with its decoded photo, ready for compositing.
// Photo is nil when lookup found nothing or failed.
type SlidePhoto struct {
	SlideID     string
	Photo       image.Image
	Attribution string
}

type AssetService struct {
	repo   repository.Repository
	images ImageSearcher
}

func NewAssetService(repo repository.Repository, images ImageSearcher) *AssetService {
	return &AssetService{repo: repo, images: images}
}

// FetchSlideImages looks up a photo for every slide that carries an image
// query. Lookup failures are logged and skipped; a lecture with plain slides
// is better than a failed lecture.
func (s *AssetService) FetchSlideImages(ctx context.Context, slides []*entities.Slide) (map[string]SlidePhoto, error) {
	photos := make([]SlidePhoto, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, slide := range slides {
		i, slide := i, slide
		if slide.ImageQuery == nil || *slide.ImageQuery == "" {
			continue
		}
		g.Go(func() error {
			result, err := s.images.Search(gctx, *slide.ImageQuery)
			if err != nil {
				zerolog.Ctx(gctx).Warn().Err(err).
					Int("slide_number", slide.SlideNumber).
					Str("query", *slide.ImageQuery).
					Msg("image search failed, slide keeps no photo")
				return nil
			}
			if result == nil {
				return nil
			}

			data, err := s.images.Download(gctx, result.URL)
			if err != nil {
				zerolog.Ctx(gctx).Warn().Err(err).
					Int("slide_number", slide.SlideNumber).
					Msg("image download failed, slide keeps no photo")
				return nil
			}

			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				zerolog.Ctx(gctx).Warn().Err(err).
					Int("slide_number", slide.SlideNumber).
					Msg("image decode failed, slide keeps no photo")
				return nil
			}

			attribution := result.Author
			if err := s.repo.UpdateSlideImage(gctx, slide.ID, result.URL, attribution); err != nil {
				return err
			}

			photos[i] = SlidePhoto{
				SlideID:     slide.ID.String(),
				Photo:       img,
				Attribution: attribution,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]SlidePhoto, len(slides))
	for _, p := range photos {
		if p.SlideID != "" {
			out[p.SlideID] = p
		}
	}
	return out, nil
}
