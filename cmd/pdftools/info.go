package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdftools/internal/convert"
)

type pageInfo struct {
	Page   int `json:"page"`
	Width  int `json:"width_px"`
	Height int `json:"height_px"`
}

type docInfo struct {
	Path  string     `json:"path"`
	Pages int        `json:"pages"`
	DPI   int        `json:"dpi"`
	Sizes []pageInfo `json:"sizes"`
}

func infoCmd(a *app) *cobra.Command {
	dpi := a.cfg.DPI
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <pdf>",
		Short: "Show page count and the pixel size of each page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := convert.NewDocument(args[0])
			if err != nil {
				return err
			}
			res, err := describe(a.measurer(), doc, dpi)
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s at %d dpi\n", res.Path, res.Pages, pluralPages(res.Pages), res.DPI)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PAGE\tWIDTH\tHEIGHT")
			for _, p := range res.Sizes {
				fmt.Fprintf(tw, "%d\t%d\t%d\n", p.Page, p.Width, p.Height)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&dpi, "dpi", dpi, "resolution the pixel sizes are computed at")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func describe(m convert.Measurer, doc convert.Document, dpi int) (docInfo, error) {
	n, err := m.PageCount(doc.Path())
	if err != nil {
		return docInfo{}, err
	}
	res := docInfo{Path: doc.Path(), Pages: n, DPI: dpi}
	for page := 1; page <= n; page++ {
		w, err := m.WidthInPixels(doc.Path(), page, dpi)
		if err != nil {
			return docInfo{}, err
		}
		h, err := m.HeightInPixels(doc.Path(), page, dpi)
		if err != nil {
			return docInfo{}, err
		}
		res.Sizes = append(res.Sizes, pageInfo{Page: page, Width: w, Height: h})
	}
	return res, nil
}
