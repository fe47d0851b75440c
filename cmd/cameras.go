package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"intercom-cli/internal/coordinator"
	"intercom-cli/pkg/models"
)

// Variables to hold flag values
var (
	camerasRefresh bool
	camerasRoom    string
)

// Parent Command
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Browse cameras",
	Long:  `List cameras from the local cache, refreshing from the backend on demand.`,
}

// List Command
var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cameras",
	Example: `  intercom-cli cameras list
  intercom-cli cameras list --refresh --room FIRST`,
	Run: func(cmd *cobra.Command, args []string) {
		coord, cleanup := setupCoordinator(true)
		defer cleanup()

		cameras, stale, err := listCameras(coord, camerasRefresh)
		if err != nil {
			if !stale {
				fmt.Printf("Error fetching cameras: %s\n", describeError(err))
				cleanup()
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Warning: refresh failed, showing cached cameras: %s\n", describeError(err))
		}

		if camerasRoom != "" {
			cameras = models.CameraCollection{Rooms: []string{camerasRoom}, Cameras: cameras.InRoom(camerasRoom)}
		}

		if printJSON(cameras) {
			return
		}

		if len(cameras.Cameras) == 0 {
			fmt.Println("No cameras found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROOM\tFAVORITE\tREC")
		fmt.Fprintln(w, "--\t----\t----\t--------\t---")

		for _, cam := range cameras.Cameras {
			room := cam.Room
			if room == "" {
				room = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				cam.ID,
				cam.Name,
				room,
				yesNo(cam.IsFavorite),
				yesNo(cam.IsRecording),
			)
		}
		w.Flush()
	},
}

// listCameras returns the cameras to show. With refresh it sends a single
// fetch; if that fails the cached snapshot is returned with stale set.
func listCameras(coord *coordinator.Coordinator, refresh bool) (cameras models.CameraCollection, stale bool, err error) {
	if !refresh {
		cameras, err = coord.LoadCameras()
		return cameras, false, err
	}

	coord.RestoreCameras()
	cameras, err = coord.RefreshCameras()
	if err != nil {
		if cached, ok := coord.Cameras(); ok {
			return cached, true, err
		}
	}
	return cameras, false, err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	// Register Parent
	rootCmd.AddCommand(camerasCmd)

	// Register Subcommands
	camerasCmd.AddCommand(camerasListCmd)

	camerasListCmd.Flags().BoolVar(&camerasRefresh, "refresh", false, "Fetch a fresh list from the backend before listing")
	camerasListCmd.Flags().StringVar(&camerasRoom, "room", "", "Only list cameras in this room")
}
