package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfbb/qrscan/internal/config"
	"github.com/dfbb/qrscan/internal/prefs"
	"github.com/dfbb/qrscan/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent scan history and chat preferences",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		cfg = config.Defaults()
	}

	home, _ := os.UserHomeDir()
	histDB := cfg.ScanHistory
	if histDB == "" {
		histDB = home + "/.qrscan/scan_history.db"
	}
	if st, err := store.New(histDB); err == nil {
		defer st.Close()
		entries, err := st.List("", "", 10)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No scans recorded yet.")
		} else {
			fmt.Println("Recent scans:")
			for _, e := range entries {
				fmt.Printf("  #%-4d %s  %-10s %-24s version=%d ecc=%s mask=%s\n",
					e.ID, e.Timestamp.Format("2006-01-02 15:04"), e.Channel, e.Source, e.Version, e.ECCLevel, e.Mask)
			}
		}
	} else {
		fmt.Printf("No scan history database found at %s\n", histDB)
	}

	p, err := prefs.New(home + "/.qrscan/prefs.json")
	if err == nil {
		all := p.All()
		if len(all) > 0 {
			fmt.Println("\nChat preferences:")
			for k, ascii := range all {
				fmt.Printf("  %-30s ascii=%v\n", k, ascii)
			}
		}
	}

	return nil
}
