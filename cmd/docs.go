package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootDoc = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childDoc = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// meta is for describing the position/info for a command doc page
type meta struct {
	title    string
	navOrder int
	parent   string
}

// docsMeta maps the base Markdown file name to its page meta
var docsMeta = map[string]meta{
	"readfish-tools":           {"readfish-tools", 0, ""},
	"readfish-tools_summarise": {"summarise", 0, "readfish-tools"},
	"readfish-tools_validate":  {"validate", 1, "readfish-tools"},
	"readfish-tools_flowcell":  {"flowcell", 2, "readfish-tools"},
	"readfish-tools_docs":      {"docs", 3, "readfish-tools"},
}

// docsCmd writes Markdown documentation for every command
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for the commands",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}

		if err := makeDocs(dir); err != nil {
			stderr.Fatalln(err)
		}
	},
}

// makeDocs parses the custom commands and outputs Markdown documentation files
func makeDocs(dir string) error {
	rootCmd.DisableAutoGenTag = true
	if err := doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler); err != nil {
		return fmt.Errorf("failed to write docs to %s: %v", dir, err)
	}
	return nil
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	m, ok := docsMeta[docBase(filename)]
	if !ok {
		return ""
	}

	if m.parent == "" {
		return fmt.Sprintf(rootDoc, m.title, m.navOrder)
	}
	return fmt.Sprintf(childDoc, m.title, m.parent, m.navOrder)
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := docBase(filename)
	if base == rootCmd.Name() {
		return "/"
	}
	return base
}

// docBase is a doc file's name without its directory or extension.
func docBase(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
