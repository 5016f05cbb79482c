package domain

// Rand is the source of randomness used for shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniformly distributed integer in [0, n).
	IntN(n int) int
}

// Queue holds the tracks waiting to be played, in play order.
// The currently playing track is not part of the queue.
type Queue struct {
	tracks []Track
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		tracks: make([]Track, 0),
	}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue) isValidIndex(index int) bool {
	return 0 <= index && index < q.Len()
}

// IndexOf converts a 1-based position, as shown to users, into a 0-based index.
// Returns ErrIndexOutOfRange if the position does not address a queued track.
func (q *Queue) IndexOf(position int) (int, error) {
	index := position - 1
	if !q.isValidIndex(index) {
		return 0, ErrIndexOutOfRange
	}
	return index, nil
}

// List returns a copy of all queued tracks.
func (q *Queue) List() []Track {
	result := make([]Track, q.Len())
	copy(result, q.tracks)
	return result
}

// At returns the track at the given 0-based index.
func (q *Queue) At(index int) (Track, bool) {
	if !q.isValidIndex(index) {
		return Track{}, false
	}
	return q.tracks[index], true
}

// Append adds tracks to the end of the queue, keeping their order.
func (q *Queue) Append(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
}

// PushFront puts a track back at the head of the queue.
func (q *Queue) PushFront(track Track) {
	q.tracks = append([]Track{track}, q.tracks...)
}

// PopFront removes and returns the head of the queue.
func (q *Queue) PopFront() (Track, bool) {
	if q.IsEmpty() {
		return Track{}, false
	}
	track := q.tracks[0]
	q.tracks = q.tracks[1:]
	return track, true
}

// RemoveAt removes and returns the track at the given 0-based index.
func (q *Queue) RemoveAt(index int) (Track, bool) {
	if !q.isValidIndex(index) {
		return Track{}, false
	}
	track := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return track, true
}

// Promote moves the track at the given 0-based index to the head of the queue.
// The relative order of the remaining tracks is preserved.
func (q *Queue) Promote(index int) (Track, bool) {
	track, ok := q.RemoveAt(index)
	if !ok {
		return Track{}, false
	}
	q.PushFront(track)
	return track, true
}

// Shuffle permutes the queue in place with the Fisher-Yates algorithm.
func (q *Queue) Shuffle(rng Rand) {
	for m := q.Len(); m > 1; {
		i := rng.IntN(m)
		m--
		q.tracks[m], q.tracks[i] = q.tracks[i], q.tracks[m]
	}
}

// Retain keeps the tracks for which keep returns true and returns the dropped ones.
func (q *Queue) Retain(keep func(Track) bool) []Track {
	kept := make([]Track, 0, q.Len())
	var dropped []Track
	for _, track := range q.tracks {
		if keep(track) {
			kept = append(kept, track)
		} else {
			dropped = append(dropped, track)
		}
	}
	q.tracks = kept
	return dropped
}

// Clear removes all tracks and returns them.
func (q *Queue) Clear() []Track {
	dropped := q.tracks
	q.tracks = make([]Track, 0)
	return dropped
}
