package service

import "sync"

// keyedMutex 按客户端键串行化读-改-写序列，不同客户端互不阻塞。
// 零值可直接使用。
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// get 返回指定键的互斥锁，不存在时创建。
func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}
