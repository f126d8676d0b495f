package driving

import (
	"context"

	"github.com/welshwandering/doctrine/internal/core/domain"
)

// GuideActionService provides desktop actions on guides: copying
// content to the clipboard and opening a guide where it lives.
type GuideActionService interface {
	// CopyToClipboard copies text to the system clipboard.
	CopyToClipboard(ctx context.Context, text string) error

	// OpenGuide opens a guide in the default application: the on-disk
	// file for filesystem sources, the repository blob page for
	// GitHub sources.
	OpenGuide(ctx context.Context, guide *domain.Guide) error
}
