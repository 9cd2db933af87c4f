package cli

import (
	"strings"
	"testing"

	"github.com/maax3v3/faceblend/internal/color"
)

func TestCompositeArgs_Validate(t *testing.T) {
	valid := CompositeArgs{SourcePath: "a.jpg", TargetPath: "b.webp", OutPath: "out.png", MaxDimension: -1}

	tests := []struct {
		name    string
		mutate  func(*CompositeArgs)
		wantErr string
	}{
		{"valid", func(*CompositeArgs) {}, ""},
		{"uppercase extensions", func(a *CompositeArgs) { a.SourcePath = "A.JPEG"; a.OutPath = "O.PNG" }, ""},
		{"missing source", func(a *CompositeArgs) { a.SourcePath = "" }, "--source is required"},
		{"missing target", func(a *CompositeArgs) { a.TargetPath = "" }, "--target is required"},
		{"unsupported target", func(a *CompositeArgs) { a.TargetPath = "b.gif" }, "--target must be"},
		{"missing out", func(a *CompositeArgs) { a.OutPath = "" }, "--out is required"},
		{"jpeg out", func(a *CompositeArgs) { a.OutPath = "out.jpg" }, "--out must be a .png"},
		{"center strategy", func(a *CompositeArgs) { a.Strategy = "center" }, ""},
		{"bad strategy", func(a *CompositeArgs) { a.Strategy = "neural" }, "--strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDetectArgs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		args    DetectArgs
		want    color.RGBA
		wantErr string
	}{
		{
			name: "short hex",
			args: DetectArgs{InPath: "x.png", OutlineColor: "#0f0"},
			want: color.RGBA{G: 255, A: 255},
		},
		{
			name: "annotate with long hex",
			args: DetectArgs{InPath: "x.jpg", AnnotatePath: "y.png", OutlineColor: "FF00FF", Strategy: "center"},
			want: color.RGBA{R: 255, B: 255, A: 255},
		},
		{
			name:    "missing input",
			args:    DetectArgs{OutlineColor: "#0f0"},
			wantErr: "--in is required",
		},
		{
			name:    "annotate not png",
			args:    DetectArgs{InPath: "x.png", AnnotatePath: "y.jpg", OutlineColor: "#0f0"},
			wantErr: "--annotate must be a .png",
		},
		{
			name:    "bad color",
			args:    DetectArgs{InPath: "x.png", OutlineColor: "#zz"},
			wantErr: "--outline-color",
		},
		{
			name:    "negative max dimension",
			args:    DetectArgs{InPath: "x.png", OutlineColor: "#0f0", MaxDimension: -3},
			wantErr: "--max-dimension",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args.Validate()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("got %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("color: got %+v, want %+v", got, tt.want)
			}
		})
	}
}
