package shotlist

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"renderq/internal/services"
	"renderq/internal/textutil"
)

// QualityLevels is the length of per-quality arrays (LOW, MEDIUM, HIGH, FINAL).
const QualityLevels = 4

// Defaults applied when a shot omits a setting.
const (
	DefaultFPS              = 25
	DefaultTargetResolution = "1920x1080"
	DefaultRenderEngine     = "CYCLES"
	DefaultRenderingDevice  = "GPU"
	DefaultOutputFormat     = "PNG"
	DefaultColorMode        = "RGBA"
	DefaultColorDepth       = "16"
)

var (
	defaultResolutionPercentage = [QualityLevels]int{50, 50, 100, 100}
	defaultMaxCyclesSamples     = [QualityLevels]int{256, 1024, 1024, 4096}
	defaultAdaptiveSampling     = [QualityLevels]bool{true, true, false, false}
)

var formatExtensions = map[string]string{
	"PNG":                 "png",
	"OPEN_EXR_MULTILAYER": "exr",
	"OPEN_EXR":            "exr",
	"TIFF":                "tiff",
	"JPEG":                "jpeg",
	"JPEG2000":            "jpeg",
}

var engineAliases = map[string]string{
	"EEVEE":     "BLENDER_EEVEE",
	"WORKBENCH": "BLENDER_WORKBENCH",
}

// FormatExtension maps a Blender image format to its file extension.
func FormatExtension(format string) (string, bool) {
	ext, ok := formatExtensions[strings.ToUpper(strings.TrimSpace(format))]
	return ext, ok
}

// FrameRange is an inclusive frame span. Set is false when the shot leaves the
// range to the blend file.
type FrameRange struct {
	Start int
	End   int
	Set   bool
}

// Count returns the number of frames in the range.
func (r FrameRange) Count() int {
	if !r.Set {
		return 0
	}
	return r.End - r.Start + 1
}

// ShotSettings is the typed render configuration of one resolved shot.
type ShotSettings struct {
	Title  string
	Scene  string
	Camera string
	Frames FrameRange
	FPS    int

	FilmTransparent bool
	UseMotionBlur   bool

	ResolutionX          int
	ResolutionY          int
	ResolutionPercentage [QualityLevels]int

	RenderEngine        string
	MaxCyclesSamples    [QualityLevels]int
	UseAdaptiveSampling [QualityLevels]bool
	UseDenoising        bool
	RenderingDevice     string

	OutputFileFormat       string
	ColorMode              string
	ColorDepth             string
	OutputFilepathOverride string

	CompositingEnabled bool
	BlendFile          string
	WorldHDRI          string

	ObjectsToHide       []string
	IndirectCollections []string
}

// Extension returns the output file extension for OutputFileFormat.
func (s ShotSettings) Extension() string {
	ext, _ := FormatExtension(s.OutputFileFormat)
	return ext
}

// Settings validates and types the shot's fields. Any malformed value is an
// ErrConfiguration naming the offending key.
func (s ResolvedShot) Settings() (ShotSettings, error) {
	out := ShotSettings{
		Title:                s.Title(),
		FPS:                  DefaultFPS,
		UseMotionBlur:        true,
		ResolutionPercentage: defaultResolutionPercentage,
		RenderEngine:         DefaultRenderEngine,
		MaxCyclesSamples:     defaultMaxCyclesSamples,
		UseAdaptiveSampling:  defaultAdaptiveSampling,
		RenderingDevice:      DefaultRenderingDevice,
		OutputFileFormat:     DefaultOutputFormat,
		ColorMode:            DefaultColorMode,
		ColorDepth:           DefaultColorDepth,
	}
	fail := func(key string, err error) (ShotSettings, error) {
		return ShotSettings{}, services.Wrap(services.ErrConfiguration, component, "settings",
			fmt.Sprintf("shot %s: %s", s.Key, key), err)
	}

	out.Scene, _ = s.String("scene")
	out.Camera, _ = s.String("camera")
	out.BlendFile, _ = s.String("blend_file")
	out.WorldHDRI, _ = s.String("world_hdri")
	out.OutputFilepathOverride, _ = s.String("output_filepath_override")
	if v, ok := s.String("rendering_device"); ok && v != "" {
		out.RenderingDevice = v
	}
	if v, ok := s.String("render_color_mode"); ok && v != "" {
		out.ColorMode = v
	}
	if v, ok := s.String("render_color_depth"); ok && v != "" {
		out.ColorDepth = v
	}

	startRaw, hasStart := s.Lookup("frame_start")
	endRaw, hasEnd := s.Lookup("frame_end")
	if hasStart && hasEnd {
		start, err := toInt(startRaw)
		if err != nil {
			return fail("frame_start", err)
		}
		end, err := toInt(endRaw)
		if err != nil {
			return fail("frame_end", err)
		}
		if end < start {
			return fail("frame_end", fmt.Errorf("frame_end %d before frame_start %d", end, start))
		}
		out.Frames = FrameRange{Start: start, End: end, Set: true}
	}

	if raw, ok := s.Lookup("fps"); ok {
		fps, err := toInt(raw)
		if err != nil || fps <= 0 {
			return fail("fps", fmt.Errorf("invalid fps %v", raw))
		}
		out.FPS = fps
	}

	out.FilmTransparent = s.Bool("film_transparent", false)
	out.UseMotionBlur = s.Bool("use_motion_blur", true)
	out.UseDenoising = s.Bool("use_denoising", false)
	out.CompositingEnabled = s.Bool("compositing_enabled", false)

	resolution := DefaultTargetResolution
	if v, ok := s.String("target_resolution"); ok {
		resolution = v
	}
	x, y, err := textutil.ParseResolution(resolution)
	if err != nil {
		return fail("target_resolution", err)
	}
	out.ResolutionX, out.ResolutionY = x, y

	if raw, ok := s.Lookup("resolution_percentage"); ok {
		if out.ResolutionPercentage, err = perQualityInts(raw); err != nil {
			return fail("resolution_percentage", err)
		}
	}
	if raw, ok := s.Lookup("max_cycles_samples"); ok {
		if out.MaxCyclesSamples, err = perQualityInts(raw); err != nil {
			return fail("max_cycles_samples", err)
		}
	}
	if raw, ok := s.Lookup("use_adaptive_sampling"); ok {
		if out.UseAdaptiveSampling, err = perQualityBools(raw); err != nil {
			return fail("use_adaptive_sampling", err)
		}
	}

	if v, ok := s.String("render_engine"); ok && v != "" {
		out.RenderEngine = v
	}
	if alias, ok := engineAliases[strings.ToUpper(out.RenderEngine)]; ok {
		out.RenderEngine = alias
	}

	format, ok := s.String("output_file_format")
	if !ok {
		format, ok = s.String("render_file_format")
	}
	if ok && format != "" {
		out.OutputFileFormat = strings.ToUpper(strings.TrimSpace(format))
	}
	if _, known := FormatExtension(out.OutputFileFormat); !known {
		return fail("output_file_format", fmt.Errorf("unsupported format %q", out.OutputFileFormat))
	}

	if out.ObjectsToHide, err = stringList(s.Fields["objects_to_hide"]); err != nil {
		return fail("objects_to_hide", err)
	}
	if out.IndirectCollections, err = stringList(s.Fields["indirect_collections"]); err != nil {
		return fail("indirect_collections", err)
	}

	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(f), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// perQualityInts accepts a scalar (applied to every level) or an array.
// Arrays shorter than QualityLevels repeat their last element.
func perQualityInts(v any) ([QualityLevels]int, error) {
	var out [QualityLevels]int
	list, isList := v.([]any)
	if !isList {
		n, err := toInt(v)
		if err != nil {
			return out, err
		}
		for i := range out {
			out[i] = n
		}
		return out, nil
	}
	if len(list) == 0 {
		return out, fmt.Errorf("empty per-quality list")
	}
	for i := range out {
		n, err := toInt(list[min(i, len(list)-1)])
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}

func perQualityBools(v any) ([QualityLevels]bool, error) {
	var out [QualityLevels]bool
	list, isList := v.([]any)
	if !isList {
		b := textutil.ParseBool(v)
		for i := range out {
			out[i] = b
		}
		return out, nil
	}
	if len(list) == 0 {
		return out, fmt.Errorf("empty per-quality list")
	}
	for i := range out {
		out[i] = textutil.ParseBool(list[min(i, len(list)-1)])
	}
	return out, nil
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of names")
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %v", item)
		}
		out = append(out, str)
	}
	return out, nil
}
