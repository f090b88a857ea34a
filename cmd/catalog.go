package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/sparkify/starlake/etl"
	"github.com/spf13/cobra"
)

// CatalogMain is wrapped by NewCatalogCommand and only exported for
// testing purposes.
var CatalogMain *etl.Main

// NewCatalogCommand returns a new cobra command wrapping CatalogMain.
func NewCatalogCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	CatalogMain = etl.NewMain()
	catalogCommand := &cobra.Command{
		Use:   "catalog",
		Short: "catalog - build only the song and artist dimensions",
		Long: `Reads the raw song catalog and writes the songs table (partitioned
by year and artist_id) and the artists table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = CatalogMain.RunCatalog()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := catalogCommand.Flags()
	err = commandeer.Flags(flags, CatalogMain)
	if err != nil {
		panic(err)
	}
	return catalogCommand
}

func init() {
	subcommandFns["catalog"] = NewCatalogCommand
}
