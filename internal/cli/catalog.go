package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qppconv/internal/scope"
	"github.com/roach88/qppconv/internal/template"
)

// ScopeInfo describes one scope of the catalog.
type ScopeInfo struct {
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	Templates []string `json:"templates"`
}

// TemplateInfo describes one template identifier.
type TemplateInfo struct {
	Name      string `json:"name"`
	Root      string `json:"root"`
	Extension string `json:"extension,omitempty"`
}

// NewScopesCommand creates the scopes command.
func NewScopesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List conversion scopes",
		Long: `List the scopes accepted by --scope, in dependency order, with their
declared members and the templates they select.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			infos := scopeInfos()
			if f.Format == "json" {
				return f.Success(infos)
			}
			rows := make([][]any, len(infos))
			for i, s := range infos {
				rows[i] = []any{s.Name, strings.Join(s.Members, ", "), len(s.Templates)}
			}
			f.Table([]string{"Scope", "Members", "Templates"}, rows)
			return nil
		},
	}
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "templates",
		Short:         "List recognised QRDA-III templates",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			infos := templateInfos()
			if f.Format == "json" {
				return f.Success(infos)
			}
			rows := make([][]any, len(infos))
			for i, t := range infos {
				rows[i] = []any{t.Name, t.Root, t.Extension}
			}
			f.Table([]string{"Template", "Root", "Extension"}, rows)
			return nil
		},
	}
}

func scopeInfos() []ScopeInfo {
	all := scope.All()
	infos := make([]ScopeInfo, len(all))
	for i, s := range all {
		ids := s.Templates().Sorted()
		names := make([]string, len(ids))
		for j, id := range ids {
			names[j] = id.String()
		}
		infos[i] = ScopeInfo{Name: s.Name(), Members: s.Direct(), Templates: names}
	}
	return infos
}

func templateInfos() []TemplateInfo {
	ids := template.All()
	infos := make([]TemplateInfo, len(ids))
	for i, id := range ids {
		infos[i] = TemplateInfo{Name: id.String(), Root: id.Root(), Extension: id.Extension()}
	}
	return infos
}
