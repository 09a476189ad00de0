package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdftools/internal/convert"
	"github.com/thywilljoshua/pdftools/internal/resize"
)

func rasterCmd(a *app) *cobra.Command {
	opts := convert.DefaultRasterOptions()
	opts.DPI = a.cfg.DPI
	opts.Quality = a.cfg.JPEGQuality

	cmd := &cobra.Command{
		Use:   "raster <pdf> <output.jpg>",
		Short: "Render one page of a PDF to a JPEG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := convert.NewDocument(args[0])
			if err != nil {
				return err
			}
			r := &convert.Rasterizer{
				Engine:   a.engine(),
				Measurer: a.measurer(),
				Resizer:  resize.Imaging{Quality: opts.Quality},
				Logger:   a.logger,
			}
			if err := r.ConvertToImage(cmd.Context(), doc, args[1], opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s page %d -> %s\n", color.GreenString("✓"), opts.Page, args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Page, "page", "p", opts.Page, "1-based page to render")
	cmd.Flags().IntVarP(&opts.Quality, "quality", "q", opts.Quality, "JPEG quality, 1-100")
	cmd.Flags().IntVar(&opts.DPI, "dpi", opts.DPI, "render resolution")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "output width in pixels (default: measured from the page)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "output height in pixels (default: measured from the page)")
	cmd.Flags().BoolVar(&opts.NoOversample, "no-oversample", false, "render at the target size instead of downsampling a larger render")
	return cmd
}
