package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nanameru/zoom-discord-workflows/internal/domain"
)

// DesignClient is the remote design-service surface used for template-based
// thumbnails. *canva.Client satisfies this interface.
type DesignClient interface {
	Autofill(ctx context.Context, title, subtitle string) (string, error)
	CloneTemplate(ctx context.Context) (string, error)
	UpdateText(ctx context.Context, designID string, elements map[string]string) error
	Export(ctx context.Context, designID string) (string, error)
}

// LocalRenderer rasterizes a thumbnail on this machine.
type LocalRenderer interface {
	Render(title, subtitle string) (string, error)
}

// errExportFailed marks a remote-path failure at the export stage. It aborts
// the whole remote path: the clone-and-edit fallback is pointless when
// exporting is what broke.
var errExportFailed = errors.New("usecase: design export failed")

// thumbnailStrategy is one way of producing an artifact. Strategies are tried
// in order; a nil artifact with a nil error means the strategy is not
// applicable in the current configuration.
type thumbnailStrategy interface {
	name() string
	remote() bool
	attempt(ctx context.Context, title, subtitle string) (domain.ThumbnailArtifact, error)
}

// ThumbnailService produces a thumbnail artifact through an ordered fallback
// chain: template autofill, then clone-and-edit, then local rendering.
// Thumbnails are best-effort enrichment: total failure returns nil and must
// never abort the pipeline.
type ThumbnailService struct {
	strategies []thumbnailStrategy
	log        *slog.Logger
}

// NewThumbnailService wires the fallback chain. designer may be nil when no
// design-service credential is configured; the remote strategies are then
// omitted entirely and no remote call is ever attempted.
func NewThumbnailService(designer DesignClient, renderer LocalRenderer, log *slog.Logger) (*ThumbnailService, error) {
	if renderer == nil {
		return nil, errors.New("usecase: local renderer must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	var strategies []thumbnailStrategy
	if designer != nil {
		strategies = append(strategies,
			&autofillStrategy{designer: designer},
			&cloneEditStrategy{designer: designer},
		)
	}
	strategies = append(strategies, &localRenderStrategy{renderer: renderer})

	return &ThumbnailService{strategies: strategies, log: log}, nil
}

// Create runs the strategy chain and returns the first artifact produced, or
// nil when every strategy failed.
func (s *ThumbnailService) Create(ctx context.Context, title, subtitle string) domain.ThumbnailArtifact {
	skipRemote := false
	for _, strat := range s.strategies {
		if skipRemote && strat.remote() {
			continue
		}
		art, err := strat.attempt(ctx, title, subtitle)
		if err != nil {
			if errors.Is(err, errExportFailed) {
				skipRemote = true
			}
			s.log.Warn("thumbnail strategy failed", "strategy", strat.name(), "err", err)
			continue
		}
		if art != nil {
			s.log.Info("thumbnail generated", "strategy", strat.name())
			return art
		}
	}
	s.log.Warn("no thumbnail could be generated, posting without image")
	return nil
}

// autofillStrategy fills the pre-built template's named fields and exports it.
type autofillStrategy struct {
	designer DesignClient
}

func (s *autofillStrategy) name() string { return "autofill" }
func (s *autofillStrategy) remote() bool { return true }

func (s *autofillStrategy) attempt(ctx context.Context, title, subtitle string) (domain.ThumbnailArtifact, error) {
	designID, err := s.designer.Autofill(ctx, title, subtitle)
	if err != nil {
		return nil, err
	}
	return exportDesign(ctx, s.designer, designID)
}

// cloneEditStrategy duplicates the template and overwrites its text elements
// by element id. Tried only when autofill itself was rejected.
type cloneEditStrategy struct {
	designer DesignClient
}

func (s *cloneEditStrategy) name() string { return "clone-edit" }
func (s *cloneEditStrategy) remote() bool { return true }

func (s *cloneEditStrategy) attempt(ctx context.Context, title, subtitle string) (domain.ThumbnailArtifact, error) {
	designID, err := s.designer.CloneTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.designer.UpdateText(ctx, designID, map[string]string{
		"lecture_title":    title,
		"lecture_subtitle": subtitle,
	}); err != nil {
		return nil, err
	}
	return exportDesign(ctx, s.designer, designID)
}

func exportDesign(ctx context.Context, designer DesignClient, designID string) (domain.ThumbnailArtifact, error) {
	url, err := designer.Export(ctx, designID)
	if err != nil {
		return nil, errors.Join(errExportFailed, err)
	}
	return domain.RemoteThumbnail{URL: url}, nil
}

// localRenderStrategy is the terminal fallback and needs no remote service.
type localRenderStrategy struct {
	renderer LocalRenderer
}

func (s *localRenderStrategy) name() string { return "local-render" }
func (s *localRenderStrategy) remote() bool { return false }

func (s *localRenderStrategy) attempt(_ context.Context, title, subtitle string) (domain.ThumbnailArtifact, error) {
	path, err := s.renderer.Render(title, subtitle)
	if err != nil {
		return nil, err
	}
	return domain.LocalThumbnail{Path: path}, nil
}
