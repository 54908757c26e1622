package models

import "strings"

// Vehicle is a car whose trips, fuel and wash history are logged.
type Vehicle struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Plate string `json:"plate"`
	VIN   string `json:"vin"`
	Notes string `json:"notes"`
}

// DisplayName returns the best human label for the vehicle.
func (v Vehicle) DisplayName() string {
	if name := strings.TrimSpace(v.Name); name != "" {
		return name
	}
	if mm := strings.TrimSpace(v.Make + " " + v.Model); mm != "" {
		return mm
	}
	if v.Plate != "" {
		return v.Plate
	}
	return "Vehicle"
}
