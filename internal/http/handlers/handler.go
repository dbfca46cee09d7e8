package handlers

import (
	"bets_bot/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler bundles the services the HTTP API exposes.
type Handler struct {
	DB      *pgxpool.Pool
	Players *service.PlayerService
	Admin   *service.AdminService
	Promos  *service.PromoService
	Shelter *service.ShelterService
}

func NewHandler(db *pgxpool.Pool, players *service.PlayerService, admin *service.AdminService, promos *service.PromoService, shelter *service.ShelterService) *Handler {
	return &Handler{
		DB:      db,
		Players: players,
		Admin:   admin,
		Promos:  promos,
		Shelter: shelter,
	}
}
