package kvstore

import "time"

func nowMs() uint64 { return uint64(time.Now().UnixMilli()) }
