// Package xconf 加载 YAML/JSON 配置文件，基于 koanf 实现。
//
// # 设计理念
//
// xconf 只负责把文件或字节数据解析成键值树并解码到结构体，
// 字段校验和默认值由使用方完成（例如 xrotate.Config.Build 会校验全部参数）。
//
//   - Load / Parse 创建 Source
//   - Source.Decode 与泛型函数 Decode 负责反序列化
//   - Source.Koanf 暴露底层 koanf 快照，用于零散读取
//   - WithEnvPrefix 允许环境变量覆盖文件中的键
//
// # 并发安全
//
// Reload 串行执行，解析成功后原子替换快照，失败时旧快照继续生效。
// 读操作无锁。Koanf() 返回的指针在 Reload 之后仍可使用，但内容是旧的。
//
// # Decode
//
// 解码使用 mapstructure 的弱类型模式，字符串 "30" 可以解码到 int 字段，
// 这也是环境变量覆盖能够工作的前提。
//
// # 监视
//
// Watcher 基于 fsnotify 监视配置文件所在目录，内置防抖，
// 支持 vim/emacs 和 ConfigMap 的原子替换写法。回调在 Run 的 goroutine 中执行，
// Run 返回后不再有回调。Parse 创建的 Source 不支持监视。
package xconf
