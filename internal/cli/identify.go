package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/storage"
	"github.com/spf13/cobra"
)

var identifyJSON bool

// identifyResult is one line of identify output
type identifyResult struct {
	Path  string `json:"path"`
	ID    string `json:"id,omitempty"`
	Kind  string `json:"error_kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewIdentifyCommand creates the identify command
func NewIdentifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identify <archive>...",
		Short: "Print the mod id of archives",
		Long: `Read the descriptor of each archive and print its mod id, or the reason
it cannot be identified. Directories are expanded to the archives they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIdentify,
	}

	cmd.Flags().BoolVar(&identifyJSON, "json", false, "print results as JSON")

	return cmd
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reader := identity.NewZipReader(cfg.Archive.Descriptor)

	filter, err := storage.NewFilter(cfg.Archive.Extension, cfg.Exclude)
	if err != nil {
		return err
	}
	backend, err := storage.NewLocal(storage.LocalOptions{Filter: filter})
	if err != nil {
		return err
	}
	defer backend.Close()

	paths, err := expandArchives(cmd.Context(), backend, args)
	if err != nil {
		return err
	}

	results := make([]identifyResult, 0, len(paths))
	failed := false
	for _, path := range paths {
		res := identifyResult{Path: path}
		id, err := reader.Identify(path)
		if err != nil {
			failed = true
			res.Error = err.Error()
			res.Kind = string(identity.KindOf(err))
		} else {
			res.ID = id.String()
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if identifyJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		r := lipgloss.NewRenderer(out)
		idStyle := r.NewStyle().Bold(true)
		errStyle := r.NewStyle().Foreground(lipgloss.Color("9"))
		for _, res := range results {
			if res.Error != "" {
				fmt.Fprintf(out, "%s\t%s\n", res.Path, errStyle.Render(res.Error))
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", res.Path, idStyle.Render(res.ID))
		}
	}

	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}

// expandArchives replaces directories by the archives directly inside them
func expandArchives(ctx context.Context, backend storage.Backend, args []string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("no such file: %s", arg)
			}
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		files, err := backend.List(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}
	return paths, nil
}
