package container

import (
	app "shop-bot/internal/application"
	"shop-bot/internal/domain/port"
)

type Container struct {
	UserService *app.UserService
	CartService *app.CartService
}

func New(store port.Store) *Container {
	return &Container{
		UserService: app.NewUserService(store),
		CartService: app.NewCartService(store),
	}
}
