package ctc

import "math"

// logAdd returns log(exp(a)+exp(b)), shifted by the larger argument for
// stability. A -Inf argument short-circuits so impossible paths stay
// impossible.
func logAdd(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if b > a {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// elemView addresses the log probabilities of a single batch element inside
// the block-major tensor.
type elemView struct {
	lp     []float32
	nstate int
	stride int // distance between consecutive blocks of this element
	base   int // offset of this element's block 0
	nblk   int
}

func (b *Batch) view(elem int) elemView {
	return elemView{
		lp:     b.LogProb,
		nstate: b.NState,
		stride: b.NBatch * b.NState,
		base:   elem * b.NState,
		nblk:   b.NBlk,
	}
}

func (v elemView) at(t int, s int32) float64 {
	return float64(v.lp[v.base+t*v.stride+int(s)])
}

// zeroRows clears this element's rows of a gradient tensor.
func (v elemView) zeroRows(grad []float32) {
	for t := 0; t < v.nblk; t++ {
		off := v.base + t*v.stride
		clear(grad[off : off+v.nstate])
	}
}

// scratch holds one worker's reusable DP buffers. Buffers grow to the
// largest element seen and are then recycled across elements and calls.
type scratch struct {
	lat   lattice
	alpha []float64
	beta  []float64
	occ   []float64
	back  []uint8
}

func growF(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func growB(buf []uint8, n int) []uint8 {
	if cap(buf) < n {
		return make([]uint8, n)
	}
	return buf[:n]
}

// initForward scores the states reachable at block 0.
func initForward(dst []float64, lat *lattice, v elemView) {
	for u := range dst {
		dst[u] = math.Inf(-1)
	}
	for u := 0; u < lat.entryStates(); u++ {
		dst[u] = v.at(0, lat.emit[u])
	}
}

// stepForward fills block t's prefix scores from block t-1's.
func stepForward(dst, src []float64, lat *lattice, v elemView, t int) {
	for u := range dst {
		acc := math.Inf(-1)
		if lat.flags[u]&latLoop != 0 {
			acc = src[u]
		}
		if u >= 1 {
			acc = logAdd(acc, src[u-1])
		}
		if u >= 2 && lat.flags[u]&latSkip != 0 {
			acc = logAdd(acc, src[u-2])
		}
		dst[u] = acc + v.at(t, lat.emit[u])
	}
}

// stepBackward fills block t's suffix scores from block t+1's.
func stepBackward(dst, src []float64, lat *lattice, v elemView, t int) {
	s := len(dst)
	for u := 0; u < s; u++ {
		acc := math.Inf(-1)
		if lat.flags[u]&latLoop != 0 {
			acc = src[u] + v.at(t+1, lat.emit[u])
		}
		if u+1 < s {
			acc = logAdd(acc, src[u+1]+v.at(t+1, lat.emit[u+1]))
		}
		if u+2 < s && lat.flags[u+2]&latSkip != 0 {
			acc = logAdd(acc, src[u+2]+v.at(t+1, lat.emit[u+2]))
		}
		dst[u] = acc
	}
}

// finalScore sums the exit states of the last block's prefix scores.
func finalScore(last []float64, lat *lattice) float64 {
	s := len(last)
	if s == 0 {
		return math.Inf(-1)
	}
	score := last[s-1]
	if lat.exitStates() == 2 {
		score = logAdd(score, last[s-2])
	}
	return score
}

// costElem runs the forward pass over two rolling rows and returns the
// total log score of the element.
func costElem(sc *scratch, v elemView, lat *lattice) float64 {
	s := lat.n()
	if s == 0 {
		return math.Inf(-1)
	}
	sc.alpha = growF(sc.alpha, 2*s)
	cur, next := sc.alpha[:s], sc.alpha[s:2*s]
	initForward(cur, lat, v)
	for t := 1; t < v.nblk; t++ {
		stepForward(next, cur, lat, v, t)
		cur, next = next, cur
	}
	return finalScore(cur, lat)
}

// gradElem runs the forward-backward pass and overwrites this element's
// gradient rows with posterior symbol occupancies. The returned score is
// arithmetically identical to costElem's; when it is -Inf the rows are
// zero.
func gradElem(sc *scratch, v elemView, lat *lattice, grad []float32) float64 {
	s := lat.n()
	nblk := v.nblk
	if s == 0 {
		v.zeroRows(grad)
		return math.Inf(-1)
	}

	sc.alpha = growF(sc.alpha, nblk*s)
	initForward(sc.alpha[:s], lat, v)
	for t := 1; t < nblk; t++ {
		stepForward(sc.alpha[t*s:(t+1)*s], sc.alpha[(t-1)*s:t*s], lat, v, t)
	}
	logZ := finalScore(sc.alpha[(nblk-1)*s:nblk*s], lat)
	if math.IsInf(logZ, -1) {
		v.zeroRows(grad)
		return logZ
	}

	sc.beta = growF(sc.beta, 2*s)
	sc.occ = growF(sc.occ, v.nstate)
	bcur, bnext := sc.beta[:s], sc.beta[s:2*s]
	for u := range bcur {
		bcur[u] = math.Inf(-1)
	}
	for i := 0; i < lat.exitStates(); i++ {
		bcur[s-1-i] = 0
	}
	for t := nblk - 1; ; t-- {
		clear(sc.occ)
		alphaRow := sc.alpha[t*s : (t+1)*s]
		for u := 0; u < s; u++ {
			tot := alphaRow[u] + bcur[u]
			if math.IsInf(tot, -1) {
				continue
			}
			sc.occ[lat.emit[u]] += math.Exp(tot - logZ)
		}
		off := v.base + t*v.stride
		row := grad[off : off+v.nstate]
		for sym, p := range sc.occ {
			row[sym] = float32(p)
		}
		if t == 0 {
			break
		}
		stepBackward(bnext, bcur, lat, v, t-1)
		bcur, bnext = bnext, bcur
	}
	return logZ
}

// Backtrace codes, one per (block, state) cell.
const (
	fromNone uint8 = iota
	fromLoop
	fromPrev
	fromSkip
)

// alignElem runs the max-product recurrence and writes the aligned network
// symbol for every block into states, returning the best path's score. Ties
// keep the first candidate in (loop, advance, skip) order. When no path
// exists the element's states are -1 and the score -Inf.
func alignElem(sc *scratch, v elemView, lat *lattice, states []int32, elem, nbatch int) float64 {
	s := lat.n()
	nblk := v.nblk
	if s == 0 {
		markUnaligned(states, elem, nbatch, nblk)
		return math.Inf(-1)
	}

	sc.alpha = growF(sc.alpha, 2*s)
	sc.back = growB(sc.back, nblk*s)
	cur, next := sc.alpha[:s], sc.alpha[s:2*s]
	initForward(cur, lat, v)
	for u := range sc.back[:s] {
		sc.back[u] = fromNone
	}
	for t := 1; t < nblk; t++ {
		backRow := sc.back[t*s : (t+1)*s]
		for u := 0; u < s; u++ {
			best := math.Inf(-1)
			code := fromNone
			if lat.flags[u]&latLoop != 0 {
				best = cur[u]
				code = fromLoop
			}
			if u >= 1 && cur[u-1] > best {
				best = cur[u-1]
				code = fromPrev
			}
			if u >= 2 && lat.flags[u]&latSkip != 0 && cur[u-2] > best {
				best = cur[u-2]
				code = fromSkip
			}
			next[u] = best + v.at(t, lat.emit[u])
			backRow[u] = code
		}
		cur, next = next, cur
	}

	bestU := s - 1
	best := cur[bestU]
	if lat.exitStates() == 2 && cur[s-2] > best {
		bestU = s - 2
		best = cur[bestU]
	}
	if math.IsInf(best, -1) {
		markUnaligned(states, elem, nbatch, nblk)
		return best
	}

	u := bestU
	for t := nblk - 1; ; t-- {
		states[t*nbatch+elem] = lat.emit[u]
		if t == 0 {
			break
		}
		switch sc.back[t*s+u] {
		case fromPrev:
			u--
		case fromSkip:
			u -= 2
		}
	}
	return best
}

func markUnaligned(states []int32, elem, nbatch, nblk int) {
	for t := 0; t < nblk; t++ {
		states[t*nbatch+elem] = -1
	}
}

// feasible rules out targets whose run lengths cannot fit the block count.
// Subtler impossibilities, such as a same-symbol run boundary with no slack
// block left for the separating stay, fall out of the recurrence as -Inf.
func feasible(runs []int32, nblk int, topo Topology) bool {
	var total int
	for _, r := range runs {
		total += int(r)
	}
	if topo == TopologyExact {
		return total == nblk
	}
	return total <= nblk
}

type opMode uint8

const (
	opCost opMode = iota
	opGrad
	opAlign
)

// job carries one operation's shared inputs and outputs across workers.
// Workers touch disjoint elements, so no locking is needed.
type job struct {
	batch  *Batch
	mode   opMode
	topo   Topology
	score  []float32
	grad   []float32
	states []int32
}

// runElem scores a single batch element into the job's buffers.
func runElem(sc *scratch, j *job, elem int) {
	b := j.batch
	v := b.view(elem)
	seq, runs := b.target(elem)
	ok := feasible(runs, b.NBlk, j.topo)
	if ok {
		sc.lat.build(seq, runs, int32(b.NState-1), j.topo)
	}
	switch j.mode {
	case opCost:
		if !ok {
			j.score[elem] = float32(math.Inf(-1))
			return
		}
		j.score[elem] = float32(costElem(sc, v, &sc.lat))
	case opGrad:
		if !ok {
			v.zeroRows(j.grad)
			j.score[elem] = float32(math.Inf(-1))
			return
		}
		j.score[elem] = float32(gradElem(sc, v, &sc.lat, j.grad))
	case opAlign:
		if !ok {
			markUnaligned(j.states, elem, b.NBatch, b.NBlk)
			j.score[elem] = float32(math.Inf(-1))
			return
		}
		j.score[elem] = float32(alignElem(sc, v, &sc.lat, j.states, elem, b.NBatch))
	}
}
