package core

import (
	"doubansync-backend/lib/restyutil"
	"doubansync-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("doubansync.lib.scrapers.douban.core")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
