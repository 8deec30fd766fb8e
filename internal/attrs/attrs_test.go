// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrList_Set(t *testing.T) {
	tests := []struct {
		name    string
		initial AttrList
		value   string
		want    AttrList
		wantErr bool
	}{
		{
			name:  "bare key",
			value: "location",
			want:  AttrList{{Key: "location", Include: true, OutputKey: "location"}},
		},
		{
			name:  "dotted key is titled by last segment",
			value: "payload.main.humidity",
			want:  AttrList{{Key: "payload.main.humidity", Include: true, OutputKey: "humidity"}},
		},
		{
			name:  "title and transform",
			value: "conditions:SKY:u,name::10",
			want: AttrList{
				{Key: "conditions", Include: true, OutputKey: "SKY", TransformSpec: "u"},
				{Key: "name", Include: true, OutputKey: "name", TransformSpec: "10"},
			},
		},
		{
			name:  "excluded",
			value: "!status",
			want:  AttrList{{Key: "status", Include: false, OutputKey: "status"}},
		},
		{
			name:    "merge into existing by key",
			initial: AttrList{{Key: "location", Include: true, OutputKey: "LOCATION"}},
			value:   "location::l",
			want:    AttrList{{Key: "location", Include: true, OutputKey: "location", TransformSpec: "l"}},
		},
		{
			name:    "hide existing keeps its title",
			initial: AttrList{{Key: "alerts", Include: true, OutputKey: "ALERTS"}},
			value:   "!alerts",
			want:    AttrList{{Key: "alerts", Include: false, OutputKey: "ALERTS"}},
		},
		{
			name:  "empty and star are no-ops",
			value: "*",
			want:  nil,
		},
		{name: "too many fields", value: "a:b:c:d", wantErr: true},
		{name: "empty key", value: "location,,name", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.initial
			err := a.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAttr_Transform(t *testing.T) {
	tests := []struct {
		spec  string
		input any
		want  any
	}{
		{"", "Clear Sky", "Clear Sky"},
		{"u", "Clear Sky", "CLEAR SKY"},
		{"L", "Clear Sky", "clear sky"},
		{"u,l", "Clear Sky", "clear sky"},
		{"5", "Clear Sky", "Clear"},
		{"-10", "broken clouds overhead", "brok..head"},
		{"20", "short", "short"},
		{"u", 21.5, 21.5},
		{"u,3", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			a := Attr{TransformSpec: tt.spec}
			assert.Equal(t, tt.want, a.Transform(tt.input))
		})
	}
}

func TestAttrList_SetGlobalTransformSpec(t *testing.T) {
	var a AttrList
	require.NoError(t, a.Set("name,conditions::l,*::u"))
	a.SetGlobalTransformSpec()

	require.Len(t, a, 3)
	assert.Equal(t, "u,", a[0].TransformSpec)
	assert.Equal(t, "u,l", a[1].TransformSpec)
	assert.Equal(t, "u", a[2].TransformSpec)

	assert.Equal(t, "CAIRO", a[0].Transform("Cairo"))
	assert.Equal(t, "mist", a[1].Transform("Mist"))
}

func TestAttrList_StringAndIncluded(t *testing.T) {
	var a AttrList
	require.NoError(t, a.Set("location:LOC,!status,temp_c::2"))

	assert.Equal(t, "location:LOC:,status:status:,temp_c:temp_c:2", a.String())

	inc := a.Included()
	require.Len(t, inc, 2)
	assert.Equal(t, "location", inc[0].Key)
	assert.Equal(t, "temp_c", inc[1].Key)
	assert.Equal(t, "list", a.Type())
}
