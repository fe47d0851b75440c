package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"intercom-cli/internal/coordinator"
	"intercom-cli/internal/store"
	"intercom-cli/pkg/models"
)

// Variables to hold flag values
var (
	doorsRefresh bool
	doorID       int
	doorName     string
)

// Parent Command
var doorsCmd = &cobra.Command{
	Use:   "doors",
	Short: "Browse and rename doors",
	Long:  `List doors from the local cache, refresh them from the backend, or rename a door locally.`,
}

// List Command
var doorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all doors",
	Run: func(cmd *cobra.Command, args []string) {
		coord, cleanup := setupCoordinator(true)
		defer cleanup()

		doors, stale, err := listDoors(coord, doorsRefresh)
		if err != nil {
			if !stale {
				fmt.Printf("Error fetching doors: %s\n", describeError(err))
				cleanup()
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Warning: refresh failed, showing cached doors: %s\n", describeError(err))
		}

		if printJSON(doors) {
			return
		}

		if len(doors.Doors) == 0 {
			fmt.Println("No doors found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROOM\tFAVORITE\tPREVIEW")
		fmt.Fprintln(w, "--\t----\t----\t--------\t-------")

		for _, d := range doors.Doors {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				d.ID,
				d.Name,
				d.Room,
				yesNo(d.IsFavorite),
				yesNo(d.HasSnapshot()),
			)
		}
		w.Flush()
	},
}

// Rename Command
var doorsRenameCmd = &cobra.Command{
	Use:     "rename",
	Short:   "Rename a door in the local cache",
	Example: `  intercom-cli doors rename --id 3 --name "Back yard"`,
	Run: func(cmd *cobra.Command, args []string) {
		coord, cleanup := setupCoordinator(false)
		defer cleanup()

		door, err := coord.RenameDoor(doorID, doorName)
		if err != nil {
			if errors.Is(err, store.ErrDoorNotFound) {
				fmt.Printf("Error: no cached door with ID %d. Run 'intercom-cli doors list' to load doors first.\n", doorID)
			} else {
				fmt.Printf("Error renaming door: %v\n", err)
			}
			fmt.Printf("Requested name was: %q\n", doorName)
			cleanup()
			os.Exit(1)
		}

		if printJSON(door) {
			return
		}
		fmt.Printf("Door %d renamed to %q.\n", door.ID, door.Name)
	},
}

func init() {
	rootCmd.AddCommand(doorsCmd)

	doorsCmd.AddCommand(doorsListCmd)
	doorsListCmd.Flags().BoolVar(&doorsRefresh, "refresh", false, "Fetch a fresh list from the backend before listing")

	doorsCmd.AddCommand(doorsRenameCmd)
	doorsRenameCmd.Flags().IntVar(&doorID, "id", 0, "ID of the door")
	doorsRenameCmd.Flags().StringVar(&doorName, "name", "", "New door name")
	_ = doorsRenameCmd.MarkFlagRequired("id")
	_ = doorsRenameCmd.MarkFlagRequired("name")
}

// listDoors mirrors listCameras for doors.
func listDoors(coord *coordinator.Coordinator, refresh bool) (doors models.DoorCollection, stale bool, err error) {
	if !refresh {
		doors, err = coord.LoadDoors()
		return doors, false, err
	}

	coord.RestoreDoors()
	doors, err = coord.RefreshDoors()
	if err != nil {
		if cached, ok := coord.Doors(); ok {
			return cached, true, err
		}
	}
	return doors, false, err
}
