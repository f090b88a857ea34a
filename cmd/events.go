package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/sparkify/starlake/etl"
	"github.com/spf13/cobra"
)

// EventsMain is wrapped by NewEventsCommand and only exported for
// testing purposes.
var EventsMain *etl.Main

// NewEventsCommand returns a new cobra command wrapping EventsMain.
func NewEventsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	EventsMain = etl.NewMain()
	eventsCommand := &cobra.Command{
		Use:   "events",
		Short: "events - build the user and time dimensions and the songplays fact table",
		Long: `Reads the raw activity logs, filters them to songplay actions, and
writes users, time, and songplays (partitioned by year and month). The
song catalog is re-read to resolve song and artist ids.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = EventsMain.RunEvents()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := eventsCommand.Flags()
	err = commandeer.Flags(flags, EventsMain)
	if err != nil {
		panic(err)
	}
	return eventsCommand
}

func init() {
	subcommandFns["events"] = NewEventsCommand
}
