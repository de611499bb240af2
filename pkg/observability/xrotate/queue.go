package xrotate

// retentionQueue 定长 FIFO 环形队列，按从旧到新保存保留中的文件名
//
// 容量不会被静默突破：满时 pushBack 返回 ErrQueueFull，调用方必须先 popFront。
// 非并发安全，由 TimeRotator 的锁保护。
type retentionQueue struct {
	buf   []string
	head  int // 最旧元素下标
	count int
}

func newRetentionQueue(capacity int) *retentionQueue {
	return &retentionQueue{buf: make([]string, capacity)}
}

func (q *retentionQueue) len() int { return q.count }

func (q *retentionQueue) capacity() int { return len(q.buf) }

func (q *retentionQueue) full() bool { return q.count == len(q.buf) }

func (q *retentionQueue) empty() bool { return q.count == 0 }

// pushBack 追加最新的文件名
func (q *retentionQueue) pushBack(name string) error {
	if q.full() {
		return ErrQueueFull
	}
	q.buf[(q.head+q.count)%len(q.buf)] = name
	q.count++
	return nil
}

// pushFront 把文件名放回最旧位置，用于撤销一次 popFront
func (q *retentionQueue) pushFront(name string) error {
	if q.full() {
		return ErrQueueFull
	}
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = name
	q.count++
	return nil
}

// popFront 移除并返回最旧的文件名
func (q *retentionQueue) popFront() (string, error) {
	if q.empty() {
		return "", ErrEmptyQueue
	}
	name := q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return name, nil
}

// front 返回最旧的文件名但不移除
func (q *retentionQueue) front() (string, bool) {
	if q.empty() {
		return "", false
	}
	return q.buf[q.head], true
}

// remove 删除第一个等于 name 的元素，保持其余元素的相对顺序。O(n)，只用于罕见路径。
func (q *retentionQueue) remove(name string) bool {
	items := q.items()
	for i, it := range items {
		if it != name {
			continue
		}
		q.reset(append(items[:i], items[i+1:]...))
		return true
	}
	return false
}

// items 从旧到新返回快照
func (q *retentionQueue) items() []string {
	out := make([]string, 0, q.count)
	for i := 0; i < q.count; i++ {
		out = append(out, q.buf[(q.head+i)%len(q.buf)])
	}
	return out
}

// reset 用恢复阶段得到的列表直接填充队列，绕过稳态的 push 协议。
// 超出容量时只保留最新的部分。
func (q *retentionQueue) reset(names []string) {
	clear(q.buf)
	q.head = 0
	q.count = 0
	if len(names) > len(q.buf) {
		names = names[len(names)-len(q.buf):]
	}
	q.count = copy(q.buf, names)
}
