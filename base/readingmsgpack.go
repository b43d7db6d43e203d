package base

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
)

// EncodeMsgpack encodes the reading as a map of asset, timestamps and datapoints
//
// Datapoints are encoded as a map in their original order; integer and float values keep their msgpack types.
func (r *Reading) EncodeMsgpack(enc *msgpack.Encoder) error {
	numFields := 2
	if !r.Timestamp.IsZero() {
		numFields++
	}
	if !r.UserTimestamp.IsZero() {
		numFields++
	}
	if err := enc.EncodeMapLen(numFields); err != nil {
		return err
	}
	if err := encodeStringPair(enc, "asset", r.AssetName); err != nil {
		return err
	}
	if !r.Timestamp.IsZero() {
		if err := enc.EncodeString("timestamp"); err != nil {
			return err
		}
		if err := enc.EncodeTime(r.Timestamp); err != nil {
			return err
		}
	}
	if !r.UserTimestamp.IsZero() {
		if err := enc.EncodeString("user_ts"); err != nil {
			return err
		}
		if err := enc.EncodeTime(r.UserTimestamp); err != nil {
			return err
		}
	}
	if err := enc.EncodeString("readings"); err != nil {
		return err
	}
	return encodeMsgpackDatapoints(enc, r.Datapoints)
}

func encodeMsgpackDatapoints(enc *msgpack.Encoder, datapoints []*Datapoint) error {
	if err := enc.EncodeMapLen(len(datapoints)); err != nil {
		return err
	}
	for _, dp := range datapoints {
		if err := enc.EncodeString(dp.Name); err != nil {
			return err
		}
		if err := encodeMsgpackValue(enc, &dp.Value); err != nil {
			return fmt.Errorf("datapoint '%s': %w", dp.Name, err)
		}
	}
	return nil
}

func encodeMsgpackValue(enc *msgpack.Encoder, value *DatapointValue) error {
	switch value.Kind() {
	case KindInteger:
		return enc.EncodeInt(value.Int())
	case KindFloat:
		return enc.EncodeFloat64(value.Float())
	case KindString:
		return enc.EncodeString(value.Str())
	case KindFloatArray:
		array := value.FloatArray()
		if err := enc.EncodeArrayLen(len(array)); err != nil {
			return err
		}
		for _, f := range array {
			if err := enc.EncodeFloat64(f); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		return encodeMsgpackDatapoints(enc, value.Object())
	default:
		return enc.EncodeNil()
	}
}

func encodeStringPair(enc *msgpack.Encoder, key string, value string) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.EncodeString(value)
}
