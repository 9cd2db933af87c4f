package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/maax3v3/faceblend/internal/cli"
	"github.com/maax3v3/faceblend/internal/config"
	"github.com/maax3v3/faceblend/internal/imaging"
	"github.com/maax3v3/faceblend/internal/pipeline"
)

var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Blend the face from --source into the face region of --target",
	RunE:  runComposite,
}

func init() {
	compositeCmd.Flags().StringP("source", "s", "", "Image providing the face")
	compositeCmd.Flags().StringP("target", "t", "", "Image receiving the face")
	compositeCmd.Flags().StringP("out", "o", "", "Output PNG file")
	compositeCmd.Flags().String("config", "", "YAML configuration file")
	compositeCmd.Flags().String("strategy", "", "Detection strategy (combined, center); overrides the config")
	compositeCmd.Flags().Bool("edge-blur", false, "Soften the seam around the pasted region")
	compositeCmd.Flags().Int("max-dimension", -1, "Downscale inputs above this size; overrides the config")
	compositeCmd.MarkFlagRequired("source")
	compositeCmd.MarkFlagRequired("target")
	compositeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(compositeCmd)
}

func runComposite(cmd *cobra.Command, args []string) error {
	a := cli.CompositeArgs{}
	a.SourcePath, _ = cmd.Flags().GetString("source")
	a.TargetPath, _ = cmd.Flags().GetString("target")
	a.OutPath, _ = cmd.Flags().GetString("out")
	a.ConfigPath, _ = cmd.Flags().GetString("config")
	a.Strategy, _ = cmd.Flags().GetString("strategy")
	a.EdgeBlur, _ = cmd.Flags().GetBool("edge-blur")
	a.MaxDimension, _ = cmd.Flags().GetInt("max-dimension")
	if err := a.Validate(); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(imaging.ExpandPath(a.ConfigPath))
	if err != nil {
		return err
	}
	if a.Strategy != "" {
		cfg.Detection.Strategy = a.Strategy
	}
	if cmd.Flags().Changed("edge-blur") {
		cfg.Composite.EdgeBlur = a.EdgeBlur
	}
	if a.MaxDimension >= 0 {
		cfg.Input.MaxDimension = a.MaxDimension
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	fmt.Printf("Loading source: %s\n", a.SourcePath)
	source, err := imaging.LoadBuffer(imaging.ExpandPath(a.SourcePath), cfg.Input.MaxDimension)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	fmt.Printf("Loading target: %s\n", a.TargetPath)
	target, err := imaging.LoadBuffer(imaging.ExpandPath(a.TargetPath), cfg.Input.MaxDimension)
	if err != nil {
		return fmt.Errorf("loading target: %w", err)
	}
	fmt.Printf("Images loaded: %dx%d -> %dx%d\n", source.Width, source.Height, target.Width, target.Height)

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts.Progress = func(p int, msg string) {
		fmt.Printf("[%3d%%] %s\n", p, msg)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, source, target, opts)
	if err != nil {
		return fmt.Errorf("compositing: %w", err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if res.Cancelled {
		return fmt.Errorf("cancelled, nothing written")
	}

	fmt.Printf("Saving output: %s\n", a.OutPath)
	if err := imaging.SavePNG(imaging.ExpandPath(a.OutPath), res.Output.ToNRGBA()); err != nil {
		return err
	}
	fmt.Printf("Face placed at %s (transform %s)\n", res.Region, res.Transform)
	fmt.Println("Done!")
	return nil
}
