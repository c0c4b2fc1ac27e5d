// Copyright 2025 James-HoneyBadger
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package checksum provides the CRC-32 engine used when rebuilding PNG
// chunks. It exposes the IEEE 802.3 polynomial via the standard library's
// table-driven implementation, plus an incremental two-span variant so a
// chunk's type and payload can be checksummed without concatenating them.
package checksum

import "hash/crc32"

var ieeeTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the IEEE CRC-32 of data continuing from a previous
// checksum. Pass 0 to start fresh.
func CRC32(data []byte, initial uint32) uint32 {
	return crc32.Update(initial, ieeeTable, data)
}

// ChunkCRC computes the PNG chunk checksum: the CRC-32 of the 4-byte chunk
// type immediately followed by the chunk payload, as two spans.
func ChunkCRC(chunkType, payload []byte) uint32 {
	c := crc32.Update(0, ieeeTable, chunkType)
	return crc32.Update(c, ieeeTable, payload)
}
