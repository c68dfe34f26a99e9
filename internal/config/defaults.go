package config

const (
	defaultConfigPath                  = "~/.config/renderq/config.toml"
	defaultShotList                    = "blender_shot_list.json"
	defaultRenderQueue                 = "render_queue.json"
	defaultLogDir                      = "~/.local/share/renderq/logs"
	defaultStateDir                    = "~/.local/share/renderq"
	defaultBlenderBinary               = "blender"
	defaultRenderScript                = "~/.config/renderq/scripts/render_script.py"
	defaultCompositorScript            = "~/.config/renderq/scripts/compositor_script.py"
	defaultCompositorChain             = "~/.config/renderq/compositor/default_compositor_chain.blend"
	defaultCompositeExtension          = "png"
	defaultRenderPollInterval          = 5
	defaultRenderEndOfQueueInterval    = 30
	defaultCompositePollInterval       = 5
	defaultCompositeEndOfQueueInterval = 300
	defaultLogFormat                   = "console"
	defaultLogLevel                    = "info"
	defaultLogRetentionDays            = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ShotList:    defaultShotList,
			RenderQueue: defaultRenderQueue,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
		},
		Blender: Blender{
			Binary:             defaultBlenderBinary,
			RenderScript:       defaultRenderScript,
			CompositorScript:   defaultCompositorScript,
			CompositorChain:    defaultCompositorChain,
			CompositeExtension: defaultCompositeExtension,
		},
		Workers: Workers{
			RenderPollInterval:          defaultRenderPollInterval,
			RenderEndOfQueueInterval:    defaultRenderEndOfQueueInterval,
			CompositePollInterval:       defaultCompositePollInterval,
			CompositeEndOfQueueInterval: defaultCompositeEndOfQueueInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
