package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maax3v3/faceblend/internal/cli"
	"github.com/maax3v3/faceblend/internal/detection"
	"github.com/maax3v3/faceblend/internal/imaging"
	"github.com/maax3v3/faceblend/internal/renderer"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Locate the face-like region of an image",
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringP("in", "i", "", "Input image")
	detectCmd.Flags().String("annotate", "", "Write a PNG with the region outlined")
	detectCmd.Flags().String("outline-color", "#0f0", "Outline color for --annotate")
	detectCmd.Flags().String("strategy", detection.StrategyCombined, "Detection strategy (combined, center)")
	detectCmd.Flags().Int("max-dimension", 2048, "Downscale the input above this size (0 disables)")
	detectCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	a := cli.DetectArgs{}
	a.InPath, _ = cmd.Flags().GetString("in")
	a.AnnotatePath, _ = cmd.Flags().GetString("annotate")
	a.OutlineColor, _ = cmd.Flags().GetString("outline-color")
	a.Strategy, _ = cmd.Flags().GetString("strategy")
	a.MaxDimension, _ = cmd.Flags().GetInt("max-dimension")
	outline, err := a.Validate()
	if err != nil {
		return err
	}

	buf, err := imaging.LoadBuffer(imaging.ExpandPath(a.InPath), a.MaxDimension)
	if err != nil {
		return err
	}
	det, err := detection.ByName(a.Strategy)
	if err != nil {
		return err
	}

	d := det.Detect(buf)
	fmt.Printf("Image: %dx%d\n", buf.Width, buf.Height)
	fmt.Printf("Region: %s\n", d.Region)
	if d.FellBack {
		fmt.Println("No skin-like region found; using the geometric fallback")
	} else if a.Strategy == detection.StrategyCombined {
		fmt.Printf("Candidates: %d, symmetry %.1f, edge support %.3f\n", d.Candidates, d.Symmetry, d.EdgeSupport)
	}

	if a.AnnotatePath == "" {
		return nil
	}
	rcfg := renderer.DefaultConfig()
	rcfg.Outline = outline
	out := renderer.Annotate(buf, d, renderer.NewBitmapFont(), rcfg)
	fmt.Printf("Saving annotation: %s\n", a.AnnotatePath)
	return imaging.SavePNG(imaging.ExpandPath(a.AnnotatePath), out)
}
