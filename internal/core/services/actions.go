package services

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Ensure GuideActionService implements the interface.
var _ driving.GuideActionService = (*GuideActionService)(nil)

// GuideActionService provides desktop actions on guides.
type GuideActionService struct {
	sourceStore driven.SourceStore
}

// NewGuideActionService creates a new guide action service.
func NewGuideActionService(sourceStore driven.SourceStore) *GuideActionService {
	return &GuideActionService{sourceStore: sourceStore}
}

// CopyToClipboard copies text to the system clipboard.
func (s *GuideActionService) CopyToClipboard(_ context.Context, text string) error {
	return copyToClipboard(text)
}

// OpenGuide opens a guide in the default application.
func (s *GuideActionService) OpenGuide(ctx context.Context, guide *domain.Guide) error {
	if guide == nil {
		return fmt.Errorf("%w: guide is nil", domain.ErrInvalidInput)
	}

	target, err := s.resolveTarget(ctx, guide)
	if err != nil {
		return err
	}
	return openTarget(target)
}

// resolveTarget maps a guide to something the desktop can open: an
// absolute file path for filesystem sources, a blob URL for GitHub
// sources.
func (s *GuideActionService) resolveTarget(ctx context.Context, guide *domain.Guide) (string, error) {
	if s.sourceStore == nil {
		return "", domain.ErrNotImplemented
	}

	source, err := s.sourceStore.Get(ctx, guide.SourceID)
	if err != nil {
		return "", fmt.Errorf("get source: %w", err)
	}

	switch source.ConnectorType {
	case domain.ConnectorFilesystem:
		root := source.ConfigValue(domain.ConfigKeyPath)
		if root == "" {
			return "", fmt.Errorf("%w: source %s has no corpus path", domain.ErrInvalidInput, source.ID)
		}
		return filepath.Join(root, filepath.FromSlash(guide.Path)), nil

	case domain.ConnectorGitHub:
		return githubBlobURL(source, guide.Path), nil

	default:
		return "", fmt.Errorf("%w: cannot open %s guides", domain.ErrUnsupportedType, source.ConnectorType)
	}
}

// githubBlobURL builds the web page for a file in a GitHub repository.
// An unset branch becomes HEAD, which GitHub resolves to the default
// branch.
func githubBlobURL(source *domain.Source, guidePath string) string {
	branch := source.ConfigValue(domain.ConfigKeyBranch)
	if branch == "" {
		branch = "HEAD"
	}

	blobPath := guidePath
	if rootDir := strings.Trim(source.ConfigValue(domain.ConfigKeyRootDir), "/"); rootDir != "" {
		blobPath = path.Join(rootDir, guidePath)
	}

	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s",
		url.PathEscape(source.ConfigValue(domain.ConfigKeyOwner)),
		url.PathEscape(source.ConfigValue(domain.ConfigKeyRepo)),
		url.PathEscape(branch),
		blobPath,
	)
}

// copyToClipboard copies text to the system clipboard using OS-specific commands.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("pbcopy")
	case osLinux:
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (install xclip or xsel)")
		}
	case osWindows:
		cmd = exec.Command("cmd", "/c", "clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// openTarget opens a file path or URL in the default application.
func openTarget(target string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("open", target)
	case osLinux:
		cmd = exec.Command("xdg-open", target)
	case osWindows:
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Run()
}
