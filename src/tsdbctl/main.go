// Command tsdbctl decodes feed records and queries the timetable store from
// the command line.
package main

import (
	"os"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()

	if err := newApp().Run(os.Args); err != nil {
		utils.GetLogger().Errorw("tsdbctl failed", "error", err)
		utils.SyncLogger()
		os.Exit(1)
	}
}
