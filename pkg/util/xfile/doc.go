// Package xfile 提供日志文件路径相关的小工具。
//
// 本包服务于 xrotate：规范化用户配置的基础路径、确保父目录存在、
// 以及把基础路径拆分为 (stem, ext) 两部分供轮转文件命名使用。
//
// # 路径校验
//
// SanitizePath 只做格式净化（空路径、空字节、".." 路径段、目录路径），
// 不限制目标目录。".." 只有作为独立路径段时才视为穿越，
// "app..2024.log" 这类文件名是合法的。
//
// # 扩展名拆分
//
// SplitExt 与 filepath.Ext 的区别：
//
//	SplitExt("logs/app.log")    // "logs/app", ".log"
//	SplitExt("logs/.hidden")    // "logs/.hidden", ""   点文件不视为扩展名
//	SplitExt("logs.d/app")      // "logs.d/app", ""     目录中的点不算
//	SplitExt("logs/app.")       // "logs/app.", ""      末尾的点不算
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断。
package xfile
