package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRenderModeChannels(t *testing.T) {
	if ModeColor.HasDepth() {
		t.Error("ModeColor should not carry a depth channel")
	}
	if !ModeColorDepth.HasDepth() {
		t.Error("ModeColorDepth should carry a depth channel")
	}
	if ModeColor.String() != "RGB" {
		t.Errorf("Expected mode string RGB, got %s", ModeColor.String())
	}
	if ModeColorDepth.String() != "RGB+ED" {
		t.Errorf("Expected mode string RGB+ED, got %s", ModeColorDepth.String())
	}
}

func TestKernelModeString(t *testing.T) {
	if KernelClassic.String() != "classic" {
		t.Errorf("Expected kernel string classic, got %s", KernelClassic.String())
	}
	if KernelAntialiased.String() != "antialiased" {
		t.Errorf("Expected kernel string antialiased, got %s", KernelAntialiased.String())
	}
}

func TestRasterizeInputChannels(t *testing.T) {
	sh := &RasterizeInput{SH: make([]mgl32.Vec3, 4), SHCoeffs: 4}
	if sh.Channels() != 3 {
		t.Errorf("SH payload should expand to 3 channels, got %d", sh.Channels())
	}

	direct := &RasterizeInput{Colors: make([]float32, 16), ColorDim: 8}
	if direct.Channels() != 8 {
		t.Errorf("Direct payload should report its dimension, got %d", direct.Channels())
	}
}
