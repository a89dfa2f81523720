package repository

import (
	"go-stock-ledger/internal/model"

	"gorm.io/gorm"
)

type StationRepository interface {
	FindAll() ([]model.Station, error)
	FindByID(id uint) (*model.Station, error)
	Create(station *model.Station) error
}

type stationRepo struct {
	db *gorm.DB
}

func NewStationRepo(db *gorm.DB) StationRepository {
	return &stationRepo{db}
}

func (r *stationRepo) FindAll() ([]model.Station, error) {
	var stations []model.Station
	err := r.db.Order("name ASC").Find(&stations).Error
	return stations, err
}

func (r *stationRepo) FindByID(id uint) (*model.Station, error) {
	var station model.Station
	if err := r.db.First(&station, id).Error; err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepo) Create(station *model.Station) error {
	return r.db.Create(station).Error
}
