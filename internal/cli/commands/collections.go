package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/eachof/internal/cli/output"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/eachof"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CollectionInfo describes one configured collection.
type CollectionInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
	Role        string `json:"role"`
	Dir         string `json:"dir"`
	Entries     int    `json:"entries"`
}

// NewCollectionsCommand creates the collections command.
func NewCollectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "collections",
		Aliases: []string{"ls"},
		Short:   "Show the configured collections",
		Long: `Show every collection of the project with its kind, the eachOf variant
it gets in auto mode, its directory and number of entries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollections(cmd)
		},
	}
}

func runCollections(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	title := cases.Title(language.English)
	p := cmdCtx.Project

	infos := make([]CollectionInfo, 0, len(p.Names()))
	for _, name := range p.Names() {
		host, err := p.Host(name)
		if err != nil {
			return err
		}
		infos = append(infos, CollectionInfo{
			Name:        name,
			DisplayName: title.String(strings.NewReplacer("-", " ", "_", " ").Replace(name)),
			Kind:        p.Kind(name),
			Role:        eachof.Classify(host.Flags()).String(),
			Dir:         p.Dir(name),
			Entries:     entryCount(host),
		})
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header(1, fmt.Sprintf("Collections (%d total)", len(infos)))
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.DisplayName, info.Kind, info.Role, fmt.Sprintf("%d", info.Entries), info.Dir}
	}
	r.Table([]string{"Collection", "Kind", "Role", "Entries", "Dir"}, rows)
	return nil
}

func entryCount(h eachof.Host) int {
	switch host := h.(type) {
	case eachof.ViewsHost[*core.Item]:
		return host.Views().Len()
	case eachof.ItemsHost[*core.Item]:
		return host.Items().Len()
	default:
		return 0
	}
}
