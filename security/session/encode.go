// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package session

import (
	"bytes"
	"encoding/gob"
	"time"
)

// sessionData is the persisted shape of Session, it keeps the mutex
// out of the gob stream.
type sessionData struct {
	ID              string
	Values          map[string]interface{}
	CreatedTime     time.Time
	IsAuthenticated bool
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Encode/Decode Gob methods
//___________________________________

func encodeSession(s *Session) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encodeGob(&sessionData{
		ID:              s.ID,
		Values:          s.Values,
		CreatedTime:     s.CreatedTime,
		IsAuthenticated: s.IsAuthenticated,
	})
}

func decodeSession(b []byte) (*Session, error) {
	var sd sessionData
	if err := decodeGob(&sd, b); err != nil {
		return nil, err
	}
	if sd.Values == nil {
		sd.Values = make(map[string]interface{})
	}
	return &Session{
		ID:              sd.ID,
		Values:          sd.Values,
		CreatedTime:     sd.CreatedTime,
		IsAuthenticated: sd.IsAuthenticated,
	}, nil
}

// encodeGob method encodes value into gob
func encodeGob(v interface{}) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob method decodes given bytes into destination object.
func decodeGob(dst interface{}, src []byte) error {
	return gob.NewDecoder(bytes.NewBuffer(src)).Decode(dst)
}
