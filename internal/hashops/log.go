package hashops

import "log"

func defaultLog(format string, args ...interface{}) {
	log.Printf(format, args...)
}
