// Package cache implements the Cache provider contract (§6): a
// Postgres-backed persisted store of computed FileInfo, keyed by
// (path, size, contentHash), with a versioned on-disk record format
// encoded via protobuf's low-level wire primitives (no .proto/protoc
// step — the field layout below is the schema).
package cache

import (
	"math"
	"time"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// recordVersion is bumped whenever the wire layout below changes. A
// mismatched version on read invalidates the cache entry (§6).
const recordVersion = 1

const (
	fieldPath      = protowire.Number(1)
	fieldDuration  = protowire.Number(2)
	fieldFrame     = protowire.Number(3)
	fieldMetadata  = protowire.Number(4)
	fieldFileStats = protowire.Number(5)

	frameFieldHash      = protowire.Number(1)
	frameFieldTimestamp = protowire.Number(2)

	metaFieldWidth     = protowire.Number(1)
	metaFieldHeight    = protowire.Number(2)
	metaFieldGPSLat    = protowire.Number(3)
	metaFieldGPSLon    = protowire.Number(4)
	metaFieldCamera    = protowire.Number(5)
	metaFieldImageDate = protowire.Number(6)

	statsFieldHash     = protowire.Number(1)
	statsFieldSize     = protowire.Number(2)
	statsFieldCreated  = protowire.Number(3)
	statsFieldModified = protowire.Number(4)
)

// EncodeFileInfo serializes info into the versioned wire format stored in
// the cache table's payload column. The returned byte has the format
// version as its first byte.
func EncodeFileInfo(info models.FileInfo) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPath, protowire.BytesType)
	b = protowire.AppendString(b, info.Path)
	b = protowire.AppendTag(b, fieldDuration, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, encodeFloat64(info.Media.Duration))
	for _, fr := range info.Media.Frames {
		b = protowire.AppendTag(b, fieldFrame, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeFrame(fr))
	}
	b = protowire.AppendTag(b, fieldMetadata, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeMetadata(info.Metadata))
	b = protowire.AppendTag(b, fieldFileStats, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeFileStats(info.FileStats))

	out := make([]byte, 0, len(b)+1)
	out = append(out, recordVersion)
	out = append(out, b...)
	return out
}

func encodeFrame(fr models.FrameInfo) []byte {
	var b []byte
	b = protowire.AppendTag(b, frameFieldHash, protowire.BytesType)
	b = protowire.AppendBytes(b, fr.Hash)
	b = protowire.AppendTag(b, frameFieldTimestamp, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, encodeFloat64(fr.Timestamp))
	return b
}

func encodeMetadata(m models.Metadata) []byte {
	var b []byte
	b = protowire.AppendTag(b, metaFieldWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Width))
	b = protowire.AppendTag(b, metaFieldHeight, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Height))
	if m.GPSLatitude != nil {
		b = protowire.AppendTag(b, metaFieldGPSLat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, encodeFloat64(*m.GPSLatitude))
	}
	if m.GPSLongitude != nil {
		b = protowire.AppendTag(b, metaFieldGPSLon, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, encodeFloat64(*m.GPSLongitude))
	}
	if m.CameraModel != "" {
		b = protowire.AppendTag(b, metaFieldCamera, protowire.BytesType)
		b = protowire.AppendString(b, m.CameraModel)
	}
	if m.ImageDate != nil {
		b = protowire.AppendTag(b, metaFieldImageDate, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.ImageDate.Unix()))
	}
	return b
}

func encodeFileStats(fs models.FileStats) []byte {
	var b []byte
	b = protowire.AppendTag(b, statsFieldHash, protowire.BytesType)
	b = protowire.AppendString(b, fs.ContentHash)
	b = protowire.AppendTag(b, statsFieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(fs.Size))
	b = protowire.AppendTag(b, statsFieldCreated, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(fs.CreatedAt.Unix()))
	b = protowire.AppendTag(b, statsFieldModified, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(fs.ModifiedAt.Unix()))
	return b
}

// encodeFloat64 reinterprets f's IEEE-754 bit pattern as a uint64, the way
// a fixed64-encoded double is carried on the wire.
func encodeFloat64(f float64) uint64 {
	return math.Float64bits(f)
}

func mathFloat64frombits(v uint64) float64 {
	return math.Float64frombits(v)
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// DecodeFileInfo parses a payload produced by EncodeFileInfo, validating
// the leading version byte first (§6: a version mismatch invalidates the
// cache entry).
func DecodeFileInfo(payload []byte) (models.FileInfo, error) {
	if len(payload) == 0 {
		return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: empty payload", nil)
	}
	if payload[0] != recordVersion {
		return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: version mismatch", nil)
	}
	b := payload[1:]

	var info models.FileInfo
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad tag", nil)
		}
		b = b[n:]
		switch num {
		case fieldPath:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad path", nil)
			}
			info.Path = s
			b = b[m:]
		case fieldDuration:
			v, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad duration", nil)
			}
			info.Media.Duration = mathFloat64frombits(v)
			b = b[m:]
		case fieldFrame:
			data, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad frame", nil)
			}
			fr, err := decodeFrame(data)
			if err != nil {
				return models.FileInfo{}, err
			}
			info.Media.Frames = append(info.Media.Frames, fr)
			b = b[m:]
		case fieldMetadata:
			data, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad metadata", nil)
			}
			md, err := decodeMetadata(data)
			if err != nil {
				return models.FileInfo{}, err
			}
			info.Metadata = md
			b = b[m:]
		case fieldFileStats:
			data, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: bad fileStats", nil)
			}
			fs, err := decodeFileStats(data)
			if err != nil {
				return models.FileInfo{}, err
			}
			info.FileStats = fs
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return models.FileInfo{}, dederr.New(dederr.Cache, "cache.DecodeFileInfo: skip unknown field", nil)
			}
			b = b[m:]
		}
	}
	return info, nil
}

func decodeFrame(b []byte) (models.FrameInfo, error) {
	var fr models.FrameInfo
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fr, dederr.New(dederr.Cache, "cache.decodeFrame: bad tag", nil)
		}
		b = b[n:]
		switch num {
		case frameFieldHash:
			data, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fr, dederr.New(dederr.Cache, "cache.decodeFrame: bad hash", nil)
			}
			fr.Hash = append([]byte(nil), data...)
			b = b[m:]
		case frameFieldTimestamp:
			v, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return fr, dederr.New(dederr.Cache, "cache.decodeFrame: bad timestamp", nil)
			}
			fr.Timestamp = mathFloat64frombits(v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fr, dederr.New(dederr.Cache, "cache.decodeFrame: skip", nil)
			}
			b = b[m:]
		}
	}
	return fr, nil
}

func decodeMetadata(b []byte) (models.Metadata, error) {
	var md models.Metadata
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad tag", nil)
		}
		b = b[n:]
		switch num {
		case metaFieldWidth:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad width", nil)
			}
			md.Width = int(v)
			b = b[m:]
		case metaFieldHeight:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad height", nil)
			}
			md.Height = int(v)
			b = b[m:]
		case metaFieldGPSLat:
			v, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad gps lat", nil)
			}
			f := mathFloat64frombits(v)
			md.GPSLatitude = &f
			b = b[m:]
		case metaFieldGPSLon:
			v, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad gps lon", nil)
			}
			f := mathFloat64frombits(v)
			md.GPSLongitude = &f
			b = b[m:]
		case metaFieldCamera:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad camera", nil)
			}
			md.CameraModel = s
			b = b[m:]
		case metaFieldImageDate:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: bad image date", nil)
			}
			t := unixToTime(int64(v))
			md.ImageDate = &t
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return md, dederr.New(dederr.Cache, "cache.decodeMetadata: skip", nil)
			}
			b = b[m:]
		}
	}
	return md, nil
}

func decodeFileStats(b []byte) (models.FileStats, error) {
	var fs models.FileStats
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: bad tag", nil)
		}
		b = b[n:]
		switch num {
		case statsFieldHash:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: bad hash", nil)
			}
			fs.ContentHash = s
			b = b[m:]
		case statsFieldSize:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: bad size", nil)
			}
			fs.Size = int64(v)
			b = b[m:]
		case statsFieldCreated:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: bad created", nil)
			}
			fs.CreatedAt = unixToTime(int64(v))
			b = b[m:]
		case statsFieldModified:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: bad modified", nil)
			}
			fs.ModifiedAt = unixToTime(int64(v))
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fs, dederr.New(dederr.Cache, "cache.decodeFileStats: skip", nil)
			}
			b = b[m:]
		}
	}
	return fs, nil
}
