package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// The remember/search/list/export commands parse --tags and --project
// themselves, so cobra's flag parsing is disabled and the raw argument
// string is passed through verbatim. The config file is picked via
// MEMDOCS_CONFIG for these commands.

func rememberCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "remember [--tags t1,t2] [--project name] <text>",
		Short:              "Save a documentation memory item",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("remember-doc", strings.Join(args, " "), false)
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "search [--tags t1,t2] [--project name] <query> [limit]",
		Short:              "Search documentation memory by relevance",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("search-docs", strings.Join(args, " "), false)
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "list [--tags t1,t2] [--project name] [limit]",
		Short:              "List recent documentation memory items",
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("list-docs", strings.Join(args, " "), false)
		},
	}
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <id>",
		Short: "Delete a documentation memory item by id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("forget-doc", args[0], true)
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "export [--tags t1,t2] [--project name] [path]",
		Short:              "Export memory items as markdown files",
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("export-docs", strings.Join(args, " "), false)
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [path]",
		Short: "Import markdown memory files into the store",
		Run: func(cmd *cobra.Command, args []string) {
			dispatch("import-docs", strings.Join(args, " "), true)
		},
	}
}
