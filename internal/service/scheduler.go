package service

import (
	"log"

	"github.com/go-co-op/gocron/v2"
)

func NewScheduler(options ...gocron.SchedulerOption) gocron.Scheduler {
	scheduler, err := gocron.NewScheduler(options...)
	if err != nil {
		log.Fatal(err)
	}
	return scheduler
}
