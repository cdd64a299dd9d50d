package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"store": map[string]interface{}{
			"driver": DriverJSON,
			"path":   "output.json",
		},
		"scheduler": map[string]interface{}{
			"interval": 1,
		},
		"notify": map[string]interface{}{
			"icon":       "appointment-soon",
			"timeout_ms": 6000,
			"desktop": map[string]interface{}{
				"enabled":  true,
				"app_name": "remind",
			},
			"console": map[string]interface{}{
				"enabled": true,
			},
			"telegram": map[string]interface{}{
				"enabled":   false,
				"bot_token": "",
				"chat_id":   "",
			},
		},
		"log": map[string]interface{}{
			"level":       "info",
			"development": false,
		},
		"ui": map[string]interface{}{
			"colored_output": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.remind/config.yaml"
}
