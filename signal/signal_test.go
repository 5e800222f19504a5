/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package signal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalResolveIsIdempotent(t *testing.T) {
	s := New[int]()
	s.Resolve(1)
	s.Resolve(2)

	val, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, val)
}

func TestSignalRejectSurfacesError(t *testing.T) {
	s := New[int]()
	boom := errors.New("boom")
	s.Reject(boom)

	_, err := s.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSignalWaitRespectsContext(t *testing.T) {
	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Done())
}

func TestSlotMemoizesSuccess(t *testing.T) {
	var calls int32
	slot := &Slot[int]{}
	work := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sig := slot.Run(work)
			val, err := sig.Wait(context.Background())
			require.NoError(t, err)
			results[i] = val
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 42, r)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSlotEvictsOnErrorAndRetries(t *testing.T) {
	var calls int32
	slot := &Slot[int]{}
	work := func() (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return 0, errors.New("first attempt fails")
		}
		return 7, nil
	}

	sig1 := slot.Run(work)
	_, err := sig1.Wait(context.Background())
	require.Error(t, err)

	sig2 := slot.Run(work)
	val, err := sig2.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMapIsKeyedIndependently(t *testing.T) {
	m := NewMap[string, int]()
	sigA := m.Run("a", func() (int, error) { return 1, nil })
	sigB := m.Run("b", func() (int, error) { return 2, nil })

	valA, err := sigA.Wait(context.Background())
	require.NoError(t, err)
	valB, err := sigB.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, valA)
	assert.Equal(t, 2, valB)
}

func TestMapClearForcesFreshAttempt(t *testing.T) {
	var calls int32
	m := NewMap[string, int]()
	work := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}

	_, err := m.Run("k", work).Wait(context.Background())
	require.NoError(t, err)
	m.Clear()
	_, err = m.Run("k", work).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
