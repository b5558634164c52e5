package s3store

import "time"

func nowMs() uint64 { return uint64(time.Now().UnixMilli()) }
