package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sflowg/blotato/plugins/blotato"
	"github.com/sflowg/blotato/runtime"
	"github.com/spf13/viper"
)

// buildApp loads flow-config.yaml and registers the Blotato plugin. A missing
// config file is tolerated when the path was not set explicitly; the API key
// then has to come from the flag or the environment.
func buildApp(v *viper.Viper, explicitConfig bool) (*runtime.App, *blotato.BlotatoPlugin, error) {
	configPath := v.GetString("config")
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) && !explicitConfig {
		configPath = ""
	}

	app, err := runtime.NewApp(configPath)
	if err != nil {
		return nil, nil, err
	}

	if key := v.GetString("api_key"); key != "" {
		if app.Config.Plugins == nil {
			app.Config.Plugins = make(map[string]map[string]any)
		}
		if app.Config.Plugins[blotato.NodeName] == nil {
			app.Config.Plugins[blotato.NodeName] = make(map[string]any)
		}
		app.Config.Plugins[blotato.NodeName]["api_key"] = key
	}

	p := &blotato.BlotatoPlugin{}
	if err := app.RegisterPlugin(blotato.NodeName, p, &p.Config); err != nil {
		return nil, nil, fmt.Errorf("%w (set plugins.%s.api_key, --api-key or BLOTATO_API_KEY)", err, blotato.NodeName)
	}
	return app, p, nil
}
