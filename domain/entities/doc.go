// Package entities provides the core domain types of the host call protocol.
// These types serve dual purpose: domain entities AND wire values passed
// across the guest/host boundary.
package entities
