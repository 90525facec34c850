package handler

import (
	"lemuria/internal/app/presence"
	"lemuria/internal/app/world"
	"lemuria/internal/configs"
)

type AppDeps struct {
	Presence *presence.Manager
	Worlds   *world.Service
	Config   *configs.AppConfig
}
