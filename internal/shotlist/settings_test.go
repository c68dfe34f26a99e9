package shotlist_test

import (
	"errors"
	"reflect"
	"testing"

	"renderq/internal/services"
	"renderq/internal/shotlist"
)

func settingsFor(t *testing.T, shotJSON string) (shotlist.ShotSettings, error) {
	t.Helper()
	doc := `{"project_root": "/proj", "render_root": "/out", "shots": [` + shotJSON + `]}`
	db, err := shotlist.Parse([]byte(doc), "doc.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	shot, err := db.ResolveShot("s", "1")
	if err != nil {
		t.Fatalf("ResolveShot: %v", err)
	}
	return shot.Settings()
}

func TestSettingsDefaults(t *testing.T) {
	s, err := settingsFor(t, `{"category": "s", "id": 1}`)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Title != "s_1" || s.FPS != 25 || !s.UseMotionBlur || s.FilmTransparent {
		t.Fatalf("unexpected scalar defaults %+v", s)
	}
	if s.ResolutionX != 1920 || s.ResolutionY != 1080 {
		t.Fatalf("resolution = %dx%d", s.ResolutionX, s.ResolutionY)
	}
	if s.ResolutionPercentage != [4]int{50, 50, 100, 100} {
		t.Fatalf("resolution percentage = %v", s.ResolutionPercentage)
	}
	if s.MaxCyclesSamples != [4]int{256, 1024, 1024, 4096} {
		t.Fatalf("samples = %v", s.MaxCyclesSamples)
	}
	if s.UseAdaptiveSampling != [4]bool{true, true, false, false} {
		t.Fatalf("adaptive = %v", s.UseAdaptiveSampling)
	}
	if s.RenderEngine != "CYCLES" || s.RenderingDevice != "GPU" || s.Extension() != "png" {
		t.Fatalf("engine/device/ext = %s/%s/%s", s.RenderEngine, s.RenderingDevice, s.Extension())
	}
	if s.Frames.Set || s.CompositingEnabled {
		t.Fatalf("frames/compositing should be unset: %+v", s)
	}
}

func TestSettingsOverrides(t *testing.T) {
	s, err := settingsFor(t, `{
		"category": "s", "id": 1, "frame_start": "3", "frame_end": 7,
		"render_engine": "eevee", "output_file_format": "open_exr_multilayer",
		"max_cycles_samples": [128, 1024, 4096], "use_adaptive_sampling": "true",
		"resolution_percentage": 75, "compositing_enabled": "ON",
		"objects_to_hide": ["Cube"], "target_resolution": "3840X2160"
	}`)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Frames != (shotlist.FrameRange{Start: 3, End: 7, Set: true}) || s.Frames.Count() != 5 {
		t.Fatalf("frames = %+v", s.Frames)
	}
	if s.RenderEngine != "BLENDER_EEVEE" {
		t.Fatalf("engine alias not applied: %s", s.RenderEngine)
	}
	if s.Extension() != "exr" {
		t.Fatalf("ext = %s", s.Extension())
	}
	if s.MaxCyclesSamples != [4]int{128, 1024, 4096, 4096} {
		t.Fatalf("short per-quality list should repeat last value: %v", s.MaxCyclesSamples)
	}
	if s.UseAdaptiveSampling != [4]bool{true, true, true, true} {
		t.Fatalf("scalar bool should apply to every level: %v", s.UseAdaptiveSampling)
	}
	if s.ResolutionPercentage != [4]int{75, 75, 75, 75} {
		t.Fatalf("scalar percentage = %v", s.ResolutionPercentage)
	}
	if !s.CompositingEnabled || !reflect.DeepEqual(s.ObjectsToHide, []string{"Cube"}) {
		t.Fatalf("compositing/objects = %v/%v", s.CompositingEnabled, s.ObjectsToHide)
	}
	if s.ResolutionX != 3840 || s.ResolutionY != 2160 {
		t.Fatalf("resolution = %dx%d", s.ResolutionX, s.ResolutionY)
	}
}

func TestSettingsRenderFileFormatFallback(t *testing.T) {
	s, err := settingsFor(t, `{"category": "s", "id": 1, "render_file_format": "TIFF"}`)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Extension() != "tiff" {
		t.Fatalf("ext = %s", s.Extension())
	}
}

func TestSettingsRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"format":     `{"category": "s", "id": 1, "output_file_format": "GIF"}`,
		"resolution": `{"category": "s", "id": 1, "target_resolution": "wide"}`,
		"frames":     `{"category": "s", "id": 1, "frame_start": 10, "frame_end": 2}`,
		"samples":    `{"category": "s", "id": 1, "max_cycles_samples": []}`,
		"fps":        `{"category": "s", "id": 1, "fps": 24.5}`,
	}
	for name, shot := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := settingsFor(t, shot); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestFormatExtensionTable(t *testing.T) {
	want := map[string]string{
		"PNG": "png", "OPEN_EXR_MULTILAYER": "exr", "OPEN_EXR": "exr",
		"TIFF": "tiff", "JPEG": "jpeg", "JPEG2000": "jpeg",
	}
	for format, ext := range want {
		if got, ok := shotlist.FormatExtension(format); !ok || got != ext {
			t.Errorf("FormatExtension(%s) = %q, %v", format, got, ok)
		}
	}
}
