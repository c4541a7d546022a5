package models

import (
	"log"

	"github.com/abiru/kikaku-os-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&DailyCloseRun{}, &LedgerEntry{},
		&AnomalyAlert{}, &NotificationLog{},
		&Document{},
		&Order{}, &Payment{}, &Refund{},
		&WebhookEvent{}, &ProductVariant{}, &Quote{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
