package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"intercom-cli/internal/config"
)

var (
	clearCameras bool
	clearDoors   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what is currently cached",
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.Load()
		cache := openStore(settings)
		defer cache.Close()

		cams, err := cache.ReadCameras()
		if err != nil {
			fmt.Printf("Error reading cameras: %v\n", err)
			return
		}
		doors, err := cache.ReadDoors()
		if err != nil {
			fmt.Printf("Error reading doors: %v\n", err)
			return
		}

		info := struct {
			Dir     string `json:"dir"`
			Cameras *int   `json:"cameras"`
			Rooms   *int   `json:"rooms"`
			Doors   *int   `json:"doors"`
		}{Dir: settings.CacheDir}
		if cams != nil {
			n, r := len(cams.Cameras), len(cams.Rooms)
			info.Cameras, info.Rooms = &n, &r
		}
		if doors != nil {
			n := len(doors.Doors)
			info.Doors = &n
		}

		if printJSON(info) {
			return
		}

		fmt.Printf("Cache directory: %s\n", info.Dir)
		if info.Cameras != nil {
			fmt.Printf("Cameras: %d in %d rooms\n", *info.Cameras, *info.Rooms)
		} else {
			fmt.Println("Cameras: not cached")
		}
		if info.Doors != nil {
			fmt.Printf("Doors: %d\n", *info.Doors)
		} else {
			fmt.Println("Doors: not cached")
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached snapshots",
	Long: `Removes the cached camera and/or door snapshots. Without flags both are
removed. The next list command fetches from the backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !clearCameras && !clearDoors {
			clearCameras, clearDoors = true, true
		}

		cache := openStore(config.Load())
		defer cache.Close()

		if clearCameras {
			if err := cache.ClearCameras(); err != nil {
				fmt.Printf("Error clearing cameras: %v\n", err)
				cache.Close()
				os.Exit(1)
			}
			fmt.Println("Camera cache cleared.")
		}
		if clearDoors {
			if err := cache.ClearDoors(); err != nil {
				fmt.Printf("Error clearing doors: %v\n", err)
				cache.Close()
				os.Exit(1)
			}
			fmt.Println("Door cache cleared.")
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().BoolVar(&clearCameras, "cameras", false, "Clear only the camera snapshot")
	cacheClearCmd.Flags().BoolVar(&clearDoors, "doors", false, "Clear only the door snapshot")
}
